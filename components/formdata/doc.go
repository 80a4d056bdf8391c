// Package formdata provides a small net/http component that serves normalized
// submission state as JSON. It fetches the form definition and the stored
// submission from the backing API, resolves historical field keys against the
// schema, and returns a flat map of canonical field names to values.
//
// The handler responds to GET and HEAD requests at
// {base}/{formID}/state/{submissionID} and can optionally cache resolved
// state in a local store.
package formdata
