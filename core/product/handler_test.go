package product

import (
	"net/http/httptest"
	"testing"
)

func TestPageParams(t *testing.T) {
	cases := []struct {
		url     string
		page    int
		perPage int
		wantErr bool
	}{
		{"/products", 1, 12, false},
		{"/products?page=3", 3, 12, false},
		{"/products?page=2&per_page=5", 2, 5, false},
		{"/products?per_page=100", 1, 100, false},
		{"/products?page=0", 0, 0, true},
		{"/products?page=abc", 0, 0, true},
		{"/products?per_page=0", 0, 0, true},
		{"/products?per_page=101", 0, 0, true},
	}

	for _, c := range cases {
		r := httptest.NewRequest("GET", c.url, nil)
		page, perPage, err := pageParams(r)

		if c.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got page=%d perPage=%d", c.url, page, perPage)
			}
			continue
		}

		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.url, err)
			continue
		}
		if page != c.page || perPage != c.perPage {
			t.Errorf("%s: got (%d, %d), want (%d, %d)", c.url, page, perPage, c.page, c.perPage)
		}
	}
}
