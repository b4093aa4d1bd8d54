package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/ecoshop/internal/app"
	"github.com/five82/ecoshop/internal/pages"
	"github.com/five82/ecoshop/internal/storefront"
)

var productFilter storefront.ProductFilter

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse the catalogue",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			svc.Session.CheckAuth(ctx)
			page, err := pages.NewProducts(svc.Deps).List(ctx, productFilter)
			if err != nil {
				return err
			}
			if page.Results == nil {
				page.Results = []storefront.Product{}
			}
			return writeOutput(cmd.OutOrStdout(), outputFormat, page, func(tw *tabwriter.Writer) {
				printProducts(tw, page)
			})
		})
	},
}

var productsGetCmd = &cobra.Command{
	Use:   "get <slug>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			p, err := pages.NewProducts(svc.Deps).Get(ctx, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outputFormat, p, func(tw *tabwriter.Writer) {
				printProduct(tw, p)
			})
		})
	},
}

func init() {
	f := productsListCmd.Flags()
	f.StringVar(&productFilter.Search, "search", "", "Search text")
	f.StringVar(&productFilter.Category, "category", "", "Category slug")
	f.StringVar(&productFilter.Brand, "brand", "", "Brand name")
	f.StringVar(&productFilter.EcoBadge, "eco", "", "Eco impact: low, medium or high")
	f.StringVar(&productFilter.Ordering, "ordering", "", "Sort order, e.g. price, -price, name")
	f.Float64Var(&productFilter.MinPrice, "min-price", 0, "Minimum price")
	f.Float64Var(&productFilter.MaxPrice, "max-price", 0, "Maximum price")
	f.IntVar(&productFilter.Page, "page", 0, "Page number")
	f.IntVar(&productFilter.Limit, "limit", 0, "Products per page")
	f.BoolVar(&productFilter.MyProducts, "mine", false, "Only products of your brand (brand managers)")

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsGetCmd)
}

func printProducts(tw *tabwriter.Writer, page storefront.ProductPage) {
	if len(page.Results) == 0 {
		fmt.Fprintln(tw, "No products match.")
		return
	}
	fmt.Fprintln(tw, "SLUG\tNAME\tBRAND\tPRICE\tSTOCK\tECO")
	for _, p := range page.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t$%.2f\t%d\t%s\n", p.Slug, p.Name, p.BrandName, p.Price.Float(), p.Stock, p.Badge())
	}
	fmt.Fprintf(tw, "\n%d of %d products\n", len(page.Results), page.Count)
}

func printProduct(tw *tabwriter.Writer, p storefront.Product) {
	fmt.Fprintf(tw, "Name\t%s\n", p.Name)
	fmt.Fprintf(tw, "Slug\t%s\n", p.Slug)
	fmt.Fprintf(tw, "Brand\t%s\n", p.BrandName)
	fmt.Fprintf(tw, "Category\t%s\n", p.CategoryName)
	fmt.Fprintf(tw, "Price\t$%.2f\n", p.Price.Float())
	fmt.Fprintf(tw, "Stock\t%d\n", p.Stock)
	fmt.Fprintf(tw, "Eco impact\t%s\n", p.Badge())
	fmt.Fprintf(tw, "Carbon footprint\t%.2f kg CO₂e\n", p.CarbonFootprint.Float())
	if p.OriginCountry != "" {
		fmt.Fprintf(tw, "Origin\t%s\n", p.OriginCountry)
	}
	if p.Description != "" {
		fmt.Fprintf(tw, "\n%s\n", p.Description)
	}
}
