package push

// Permission mirrors the host's tri-state notification permission. The
// console only ever requests a transition out of PermissionDefault.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PermissionStore is implemented by the host environment. Status must be
// cheap: it is consulted at render time because permission can be revoked
// out-of-band at any moment.
type PermissionStore interface {
	Status() Permission
	// Request prompts the user and returns the resulting state. It is only
	// called when Status is PermissionDefault.
	Request() Permission
}
