// Package newsletter implements newsletter lifecycle management: authoring
// CRUD, the draft → scheduled → published state machine, and the public
// visibility toggle.
//
// All mutations are owner-gated through ownership-filtered repository
// lookups; a newsletter owned by someone else is reported as not found so
// existence is never leaked to non-owners.
package newsletter
