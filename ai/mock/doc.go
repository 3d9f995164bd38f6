// Package mock provides test doubles for the ai package interfaces.
//
// # Usage
//
//	completer := mock.NewMockCompleter()
//	completer.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
//	    return "1:3-4", nil
//	}
//
//	// Check call counts and concurrency
//	count := completer.CallCount()
//	peak := completer.MaxInFlight()
//
// # Default Behavior
//
//   - MockCompleter: Returns an empty answer, which means "no matches"
//   - MockProvider: Wraps a MockCompleter
//
// Unlike the production client, the mocks record every request they see so
// tests can assert on the encoded payloads.
package mock
