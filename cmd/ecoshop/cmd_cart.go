package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/ecoshop/internal/app"
	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/pages"
	"github.com/five82/ecoshop/internal/validation"
)

// cartView is what `cart show` prints.
type cartView struct {
	Source  string       `json:"source" yaml:"source"`
	Items   []cart.Item  `json:"items" yaml:"items"`
	Summary cart.Summary `json:"summary" yaml:"summary"`
}

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and change your cart",
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart and order summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			err := pages.NewCart(svc.Deps).Refresh(ctx)
			st := svc.Cart.State()
			if err != nil && st.Cart.Source != cart.SourceFallback {
				return err
			}
			return printCart(cmd, st)
		})
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-slug> [quantity]",
	Short: "Add a product to the cart",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity := 1
		if len(args) == 2 {
			n, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			quantity = n
		}
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			product, err := pages.NewProducts(svc.Deps).Get(ctx, args[0])
			if err != nil {
				return err
			}
			loadCart(ctx, svc)
			return pages.NewCart(svc.Deps).Add(ctx, product, quantity)
		})
	},
}

var cartUpdateCmd = &cobra.Command{
	Use:   "update <item-id> <quantity>",
	Short: "Set the quantity of a cart line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := parseID(args[0])
		if err != nil {
			return err
		}
		quantity, err := parseQuantity(args[1])
		if err != nil {
			return err
		}
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			return pages.NewCart(svc.Deps).SetQuantity(ctx, itemID, quantity)
		})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <item-id>",
	Short: "Remove a line from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			loadCart(ctx, svc)
			return pages.NewCart(svc.Deps).Remove(ctx, itemID)
		})
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			return pages.NewCart(svc.Deps).Clear(ctx)
		})
	},
}

var address = map[validation.AddressField]*string{}

var cartCheckoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the cart",
	Long: `Places an order for everything in the cart. Email and phone default to
your profile when you are logged in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			loadCart(ctx, svc)

			page := pages.NewCheckout(svc.Deps)
			values := make(map[validation.AddressField]string)
			for field, value := range address {
				if cmd.Flags().Changed(flagName(field)) {
					values[field] = *value
				}
			}
			page.Form.UpdateFields(values)

			conf, err := page.Submit(ctx)
			if errors.Is(err, pages.ErrInvalidForm) {
				if ferr := formErrors(page.Form); ferr != nil {
					return ferr
				}
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outputFormat, conf, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Order\t%s\n", conf.OrderNumber)
				fmt.Fprintf(tw, "Status\t%s\n", conf.Status)
				fmt.Fprintf(tw, "Total\t$%.2f\n", conf.TotalAmount)
				fmt.Fprintf(tw, "Carbon footprint\t%.2f kg CO₂e\n", conf.TotalCarbonFootprint)
			})
		})
	},
}

func init() {
	for _, field := range validation.AddressFields {
		address[field] = cartCheckoutCmd.Flags().String(flagName(field), "", "Shipping "+string(field))
	}

	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartUpdateCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartClearCmd)
	cartCmd.AddCommand(cartCheckoutCmd)
}

// flagName turns postal_code into postal-code.
func flagName(field validation.AddressField) string {
	out := []byte(field)
	for i, c := range out {
		if c == '_' {
			out[i] = '-'
		}
	}
	return string(out)
}

// loadCart refreshes the synchronizer so line lookups see current items.
func loadCart(ctx context.Context, svc *app.Services) {
	if err := svc.Cart.Refresh(ctx); err != nil {
		logger.Debug("cart refresh before command failed", zap.Error(err))
	}
}

func printCart(cmd *cobra.Command, st cart.State) error {
	view := cartView{
		Source:  st.Cart.Source.String(),
		Items:   st.Items(),
		Summary: cart.Summarize(st.Cart.Value),
	}
	if view.Items == nil {
		view.Items = []cart.Item{}
	}
	return writeOutput(cmd.OutOrStdout(), outputFormat, view, func(tw *tabwriter.Writer) {
		if len(view.Items) == 0 {
			fmt.Fprintln(tw, "Your cart is empty.")
			return
		}
		fmt.Fprintln(tw, "ID\tPRODUCT\tQTY\tPRICE\tTOTAL\tECO")
		for _, item := range view.Items {
			total := item.TotalPrice
			if total == 0 {
				total = item.Price * float64(item.Quantity)
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t$%.2f\t$%.2f\t%s\n", item.ID, item.Name, item.Quantity, item.Price, total, item.EcoBadge)
		}
		fmt.Fprintln(tw)
		sum := view.Summary
		fmt.Fprintf(tw, "Subtotal (%d items)\t$%.2f\n", sum.TotalItems, sum.Subtotal)
		fmt.Fprintf(tw, "Tax\t$%.2f\n", sum.Tax)
		if sum.Shipping == 0 {
			fmt.Fprintln(tw, "Shipping\tFree")
		} else {
			fmt.Fprintf(tw, "Shipping\t$%.2f\n", sum.Shipping)
		}
		fmt.Fprintf(tw, "Total\t$%.2f\n", sum.Total)
		fmt.Fprintf(tw, "Carbon footprint\t%.2f kg CO₂e\n", sum.TotalCarbonFootprint)
		if st.Cart.Source == cart.SourceFallback {
			fmt.Fprintln(tw, "\n(storefront unreachable: showing the saved copy)")
		}
	})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	if msg := validation.CartItemID(id); msg != "" {
		return 0, errors.New(msg)
	}
	return id, nil
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	if msg := validation.Quantity(n); msg != "" {
		return 0, errors.New(msg)
	}
	return n, nil
}
