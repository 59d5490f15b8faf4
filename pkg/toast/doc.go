// Package toast provides transient feedback notifications.
//
// A Store keeps the toasts currently visible to one visitor. Each toast
// removes itself after DefaultDuration unless it is removed first; the
// pending timer is stopped on manual removal.
//
// # Client-Side Handler
//
// When the store has an Emitter, every change is dispatched as an event
// named "storefront:toast" so the page can render it with any toast library:
//
//	window.addEventListener("storefront:toast", (e) => {
//	    const { action, id, level, message } = e.detail;
//	    if (action === "add") showToast(id, level, message);
//	    else hideToast(id);
//	});
//
// # Server-Side Usage
//
//	toasts := toast.NewStore(toast.WithEmitter(hub.Session(id)))
//	toasts.Success("Added to cart")
//	t := toasts.Add("Payment declined", toast.TypeError)
//	toasts.Remove(t.ID)
package toast
