// Package events carries state-transition notifications out of the hub.
//
// The hub never emits events ambiently. It publishes onto a Bus that it owns,
// and consumers subscribe explicitly:
//
//	unsubscribe := h.Subscribe(func(e events.Event) {
//		logging.Info("Events", "%s", e.Message())
//	})
//	defer unsubscribe()
//
// or, for consumers that prefer a select loop:
//
//	ch, cancel := h.Events(64)
//	defer cancel()
//	for e := range ch {
//		...
//	}
//
// Messages are rendered by a MessageTemplateEngine using text/template with the
// sprig function set, so deployments can override the wording per reason.
package events
