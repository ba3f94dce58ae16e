// Package rest is a tiny generic REST dispatcher routing HTTP requests to
// handler callbacks.
//
// Routes are registered as verb + path template pairs where templates may
// contain {name} placeholder segments:
//
//	router := rest.NewRouter(logger)
//	router.Get("/items/{id}", func(req *rest.Request) (*rest.Response, error) {
//		return &rest.Response{Body: map[string]any{"id": req.PathParams["id"]}}, nil
//	})
//
// Dispatch iterates routes in registration order and the first match wins;
// there is no specificity ranking, so more specific templates must be
// registered first. Each {name} placeholder matches exactly one non-empty,
// non-slash path segment.
//
// A matched route receives a normalized Request: captured path params, query
// parameters (query wins over path params on collision), cookies, headers and
// the decoded body. Handlers return a Response value, keeping status and
// header decisions in pure logic; serialization and CORS emission happen once
// at the transport boundary. Returning a *Error short-circuits to the
// {code, message, data:{status}} envelope with its declared status.
package rest
