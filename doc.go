// Package weave intercepts method calls with before, after, after-returning,
// after-throwing and around advice.
//
// Advice is registered on a [Registry] at startup against a [Pointcut] that
// selects calls by their fully-qualified type and method name:
//
//	registry := weave.NewRegistry()
//	registry.Before(weave.Within("example.com/app/controller.UsersController"),
//		func(ctx context.Context, jp *weave.JoinPoint) error {
//			log.Println("calling", jp.Name())
//			return nil
//		})
//	interceptor := registry.Build()
//
//	proxy, err := interceptor.Proxy(&controller.UsersController{})
//	result, err := proxy.Invoke(ctx, "ListUsers")
//
// For each intercepted call the interceptor fires before advice in
// registration order, then the around advice chain whose innermost
// continuation runs the operation followed by its after-returning or
// after-throwing advice, and finally after advice exactly once.
//
// A failing before advice prevents the operation from running; after advice
// still fires with an outcome whose Executed reports false. Errors returned
// by any advice abort dispatch and reach the caller as *AdviceError.
package weave
