// Package media resolves product image paths returned by the storefront API
// into absolute URLs, either under the local media root or on Cloudinary.
package media

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const (
	cloudinaryHost = "res.cloudinary.com"
	// Placeholder is returned for products without an image.
	Placeholder = "/placeholder.jpg"
)

// Options request a Cloudinary transformation. Zero values and "auto" are
// left to Cloudinary's defaults. Local media ignores them.
type Options struct {
	Width   int
	Height  int
	Quality string
	Format  string
}

// Resolver turns API image paths into URLs.
type Resolver struct {
	base  string
	cloud string
}

// NewResolver builds a resolver. A non-empty cloudName switches resolution
// to Cloudinary; otherwise paths resolve under mediaBase.
func NewResolver(mediaBase, cloudName string) Resolver {
	return Resolver{
		base:  strings.TrimRight(strings.TrimSpace(mediaBase), "/"),
		cloud: strings.TrimSpace(cloudName),
	}
}

// UsesCloudinary reports whether the resolver targets Cloudinary.
func (r Resolver) UsesCloudinary() bool {
	return r.cloud != ""
}

// URL resolves an image path.
func (r Resolver) URL(imagePath string, opts Options) string {
	imagePath = strings.TrimSpace(imagePath)
	if imagePath == "" {
		return Placeholder
	}
	if r.UsesCloudinary() {
		return r.cloudinaryURL(imagePath, opts)
	}
	return r.localURL(imagePath)
}

func (r Resolver) localURL(imagePath string) string {
	switch {
	case strings.HasPrefix(imagePath, "http://"), strings.HasPrefix(imagePath, "https://"):
		return imagePath
	case strings.HasPrefix(imagePath, "/media/"):
		return r.base + strings.TrimPrefix(imagePath, "/media")
	case strings.HasPrefix(imagePath, "/uploads/"):
		return r.base + strings.TrimPrefix(imagePath, "/uploads")
	}
	return r.base + "/" + strings.TrimPrefix(imagePath, "/")
}

func (r Resolver) cloudinaryURL(imagePath string, opts Options) string {
	if strings.Contains(imagePath, cloudinaryHost) {
		return applyTransformations(imagePath, opts)
	}

	publicID := strings.TrimPrefix(imagePath, "/uploads/")
	publicID = strings.TrimPrefix(publicID, "/media/")
	publicID = strings.TrimSuffix(publicID, path.Ext(publicID))

	t := transformation(opts)
	if t != "" {
		t += "/"
	}
	return fmt.Sprintf("https://%s/%s/image/upload/%s%s", cloudinaryHost, r.cloud, t, publicID)
}

func applyTransformations(raw string, opts Options) string {
	t := transformation(opts)
	if t == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(parts) < 1 {
		return raw
	}
	cloud := parts[0]
	for i, p := range parts {
		if p == "upload" {
			publicID := strings.Join(parts[i+1:], "/")
			return fmt.Sprintf("https://%s/%s/image/upload/%s/%s", cloudinaryHost, cloud, t, publicID)
		}
	}
	return raw
}

func transformation(opts Options) string {
	var parts []string
	if opts.Width > 0 || opts.Height > 0 {
		fill := "c_fill"
		if opts.Width > 0 {
			fill += fmt.Sprintf(",w_%d", opts.Width)
		}
		if opts.Height > 0 {
			fill += fmt.Sprintf(",h_%d", opts.Height)
		}
		parts = append(parts, fill)
	}
	if q := opts.Quality; q != "" && q != "auto" {
		parts = append(parts, "q_"+q)
	}
	if f := opts.Format; f != "" && f != "auto" {
		parts = append(parts, "f_"+f)
	}
	return strings.Join(parts, ",")
}

var (
	transformSeg = regexp.MustCompile(`^[a-z]{1,2}_[^,/]+(,[a-z]{1,2}_[^,/]+)*$`)
	versionSeg   = regexp.MustCompile(`^v\d+$`)
)

// PublicID extracts the Cloudinary public id (without transformations,
// version or extension) from a Cloudinary URL. It returns "" for any other
// URL.
func PublicID(raw string) string {
	if !strings.Contains(raw, "cloudinary.com") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(u.Path, "/")
	for i, p := range parts {
		if p != "upload" {
			continue
		}
		rest := parts[i+1:]
		for len(rest) > 1 && (transformSeg.MatchString(rest[0]) || versionSeg.MatchString(rest[0])) {
			rest = rest[1:]
		}
		id := strings.Join(rest, "/")
		return strings.TrimSuffix(id, path.Ext(id))
	}
	return ""
}
