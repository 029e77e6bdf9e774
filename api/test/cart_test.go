package test

import (
	"net/http"
	"testing"

	"github.com/ismellshop/shop/core/cart"
)

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &catalogTest{env}
	admin := env.LoginAs(t, AdminEmail, AdminPass)

	cat := ct.createCategoryOK(t, admin, "Citrus")
	p1 := ct.createProductOK(t, admin, cat.ID, "Bergamot Dawn", "35.00", 10)
	p2 := ct.createProductOK(t, admin, cat.ID, "Neroli Sky", "28.00", 4)

	customer := env.LoginAs(t, UserEmail, UserPass)

	env.do(t, customer, http.MethodPut, "/cart/items", cart.ItemNew{ProductID: p1.ID, Quantity: 2}, http.StatusCreated, nil)
	env.do(t, customer, http.MethodPut, "/cart/items", cart.ItemNew{ProductID: p2.ID, Quantity: 1}, http.StatusCreated, nil)

	var lines []cart.Line
	env.do(t, customer, http.MethodGet, "/cart", nil, http.StatusOK, &lines)
	if len(lines) != 2 {
		t.Fatalf("got %d cart lines, want 2", len(lines))
	}
	if lines[0].Quantity != 2 || lines[0].Product.ID != p1.ID {
		t.Errorf("first line = %+v, want quantity 2 of %s", lines[0], p1.ID)
	}

	// Re-adding the same product replaces the quantity, it does not sum.
	env.do(t, customer, http.MethodPut, "/cart/items", cart.ItemNew{ProductID: p1.ID, Quantity: 3}, http.StatusCreated, nil)
	env.do(t, customer, http.MethodGet, "/cart", nil, http.StatusOK, &lines)
	if len(lines) != 2 {
		t.Fatalf("after re-add: got %d cart lines, want 2", len(lines))
	}
	for _, ln := range lines {
		if ln.ProductID == p1.ID && ln.Quantity != 3 {
			t.Errorf("re-added line quantity = %d, want 3", ln.Quantity)
		}
	}

	// Zero and negative quantities are rejected.
	env.do(t, customer, http.MethodPut, "/cart/items", cart.ItemNew{ProductID: p1.ID, Quantity: 0}, http.StatusUnprocessableEntity, nil)

	// Unknown products are rejected.
	env.do(t, customer, http.MethodPut, "/cart/items", cart.ItemNew{ProductID: "7f9c54f1-9c1e-4f5e-8e9b-3a1c2d4e5f60", Quantity: 1}, http.StatusUnprocessableEntity, nil)

	// Items of other users look absent.
	other := env.LoginAs(t, OtherEmail, OtherPass)
	env.do(t, other, http.MethodDelete, "/cart/items/"+p1.ID, nil, http.StatusNotFound, nil)

	env.do(t, customer, http.MethodDelete, "/cart/items/"+p2.ID, nil, http.StatusNoContent, nil)
	env.do(t, customer, http.MethodDelete, "/cart/items/"+p2.ID, nil, http.StatusNotFound, nil)

	// Clearing is idempotent.
	env.do(t, customer, http.MethodDelete, "/cart", nil, http.StatusNoContent, nil)
	env.do(t, customer, http.MethodDelete, "/cart", nil, http.StatusNoContent, nil)

	env.do(t, customer, http.MethodGet, "/cart", nil, http.StatusOK, &lines)
	if len(lines) != 0 {
		t.Errorf("after clear: got %d cart lines, want 0", len(lines))
	}
}
