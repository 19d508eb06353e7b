package resputil

type ErrorCode int

const (
	OK ErrorCode = 0

	// General
	InvalidRequest ErrorCode = 40001

	// Token
	TokenExpired ErrorCode = 40101
	TokenInvalid ErrorCode = 40102

	// Login
	InvalidCredentials ErrorCode = 40106

	// Caller lacks the role for the requested operation
	PermissionDenied ErrorCode = 40301

	// Entity does not exist
	NotFound ErrorCode = 40401

	// Optimistic concurrency collision, caller should refetch and retry
	Conflict ErrorCode = 40901

	// Entity state incompatible with the requested operation
	InvalidTransition ErrorCode = 42201
	InvalidState      ErrorCode = 42202

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
