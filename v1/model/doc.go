// Package model maps documents of a document database onto models with
// attribute-style field access.
//
// # Defining models
//
// Models are defined once on a Registry, which replaces any notion of
// global model state. The registry resolves collections through a
// Connector, usually *mongo.Connections:
//
//	registry := model.NewRegistry(conns, model.WithLogger(log))
//
//	users := registry.MustDefine("User", model.Options{
//		FieldMap:       map[string]string{"city": "address.city"},
//		RequiredFields: model.StringList{"email"},
//		TypedFields: map[string]any{
//			"age":  model.TypeOf[int](),
//			"tags": model.ListOf[string](),
//		},
//		Sort: model.StringList{"-created"},
//	})
//
// Definitions can also be loaded from YAML with Registry.Load. Models may
// extend a previously defined model through Options.Extends; every option
// the child leaves unset is inherited.
//
// # Instances
//
// An Instance holds its document with storage names and exposes it through
// public names. "__" and "." address embedded documents, and the field map
// translates aliases:
//
//	user, err := users.New(map[string]any{"email": "ada@example.com", "city": "London"})
//	err = user.Save(ctx)
//	city, err := user.Get("city") // stored at address.city
//
// Atomic writes (Update, Increment, RemoveFields, SaveFields, RawUpdate)
// keep the local document in sync with storage: removed fields are dropped
// locally and every other touched field is read back, so server-computed
// values such as the result of an increment are always accurate.
//
// # Querying
//
//	adults, err := users.Find(ctx, query.New(map[string]any{"age__gte": 18}))
//	ada, err := users.Get(ctx, query.New(map[string]any{"email": "ada@example.com"}))
//	if model.IsNoDocumentFound(err) {
//		...
//	}
//
// # Errors
//
// Errors are classified by kind (configuration, connection, state,
// validation, lookup, cardinality) and can be tested with errors.Is against
// the Err kinds or with the IsXxx helpers. Storage errors are returned
// unchanged.
package model
