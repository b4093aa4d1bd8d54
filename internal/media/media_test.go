package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalURL(t *testing.T) {
	r := NewResolver("http://localhost:8000/media/", "")

	cases := map[string]string{
		"":                              Placeholder,
		"https://cdn.example.com/a.jpg": "https://cdn.example.com/a.jpg",
		"/media/products/bag.jpg":       "http://localhost:8000/media/products/bag.jpg",
		"/uploads/products/bag.jpg":     "http://localhost:8000/media/products/bag.jpg",
		"products/bag.jpg":              "http://localhost:8000/media/products/bag.jpg",
		"categories/home.png":           "http://localhost:8000/media/categories/home.png",
	}
	for in, want := range cases {
		assert.Equal(t, want, r.URL(in, Options{Width: 300}), "path %q", in)
	}
}

func TestCloudinaryURL(t *testing.T) {
	r := NewResolver("", "demo")
	assert.True(t, r.UsesCloudinary())

	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/products/bag",
		r.URL("/media/products/bag.jpg", Options{}))
	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/c_fill,w_300,h_200,q_80/products/bag",
		r.URL("/uploads/products/bag.jpg", Options{Width: 300, Height: 200, Quality: "80", Format: "auto"}))
}

func TestCloudinaryURLAppliesTransformations(t *testing.T) {
	r := NewResolver("", "demo")
	raw := "https://res.cloudinary.com/other/image/upload/v123/products/bag.jpg"

	assert.Equal(t, raw, r.URL(raw, Options{}))
	assert.Equal(t,
		"https://res.cloudinary.com/other/image/upload/c_fill,w_100/v123/products/bag.jpg",
		r.URL(raw, Options{Width: 100}))
}

func TestPublicID(t *testing.T) {
	assert.Equal(t, "products/bag", PublicID("https://res.cloudinary.com/demo/image/upload/c_fill,w_100/v123/products/bag.jpg"))
	assert.Equal(t, "bag", PublicID("https://res.cloudinary.com/demo/image/upload/bag.png"))
	assert.Empty(t, PublicID("http://localhost:8000/media/bag.png"))
}
