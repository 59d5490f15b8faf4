// Package cart holds a visitor's shopping cart.
//
// The cart is an ordered list of products, each carrying its own quantity,
// with at most one entry per product ID. Every mutation writes the whole
// list through a persist.Adapter, usually the "cart" cookie:
//
//	items := persist.JSON[[]product.Product](cookies, cart.CookieName)
//	c := cart.New(items, cart.WithLogger(logger))
//	if err := c.Load(ctx); err != nil {
//	    return err
//	}
//	_ = c.Add(ctx, product.Product{ID: 7, Name: "Clifton 9", Price: 145, Quantity: 1})
//
// Operations addressed by ID report a miss with a false result instead of
// an error. Errors only come from persistence.
package cart
