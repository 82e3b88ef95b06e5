package domain

// Names of the remote user operations. They key operation state, label
// metrics and appear on RequestFailedError.
const (
	OpFetchCurrentUser = "fetchCurrentUser"
	OpCreateUser       = "createUser"
	OpUpdateUser       = "updateUser"
)
