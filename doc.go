// Package beans is a dependency injection container with scoped beans and
// lifecycle hooks.
//
// Beans are described by descriptors: a name, a scope, how to construct the
// instance, which other beans it needs and the hooks to run after
// construction and before destruction. Descriptors carry closures, so the
// container never uses reflection.
//
//	c, err := beans.New([]*beans.Descriptor{
//		{
//			Name:     "repository",
//			TypeName: "app.Repository",
//			Factory:  beans.FactoryFor(NewRepository),
//		},
//		{
//			Name: "service",
//			Constructor: beans.NewConstructor(newService, beans.RefType("app.Repository")),
//		},
//	})
//	if err != nil {
//		return err
//	}
//	if err := c.InstantiateAndRegisterAll(ctx); err != nil {
//		return err
//	}
//	defer c.Shutdown(ctx)
//
//	svc, err := beans.Get[*Service](ctx, c, "service")
//
// Three scopes are supported. Singletons are built once and shared.
// Prototypes are built on every request. Thread-scoped beans are built once
// per execution context, see WithExecutionContext.
//
// A dependency wrapped in a Provider is resolved on every call to Get rather
// than at construction time. Providers break construction cycles and give
// long-lived beans access to shorter-lived ones.
package beans
