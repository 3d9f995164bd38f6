package ai

import "context"

// Completer sends one encoded request to the model endpoint and returns the
// raw text of the first choice.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete performs a single attempt. Retrying is the caller's job.
	// Non-2xx answers are reported as *StatusError so callers can classify
	// them. An empty model answer is a valid result, not an error.
	Complete(ctx context.Context, req *Request) (string, error)
}

// Provider aggregates the services of one endpoint for lifecycle management.
type Provider interface {
	// Completer returns the completion service.
	// The returned Completer is safe for concurrent use.
	Completer() Completer

	// Close releases resources held by the provider.
	// After Close is called, the provider should not be used.
	Close() error
}

// File is one file of a request, addressed by its id within the request.
type File struct {
	ID      int
	Path    string
	Content string
	Lines   int
}

// Request is the payload contract for the model endpoint:
// {query, files: [{id, content}], model}, plus the rendered chat messages
// that carry it.
type Request struct {
	Model string
	Query string
	Files []File

	// System and User are the chat messages built from the fields above.
	System string
	User   string
}

// File returns the request file with the given id.
func (r *Request) File(id int) (File, bool) {
	if id < 1 || id > len(r.Files) {
		return File{}, false
	}
	f := r.Files[id-1]
	return f, f.ID == id
}
