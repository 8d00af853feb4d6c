package myjd

import (
	"errors"
	"fmt"
)

// AuthenticationError is returned when the relay rejects the credentials, or can not be reached during connect.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication with relay failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// DeviceOfflineError is returned when a device is not present in the online device set.
type DeviceOfflineError struct {
	DeviceID string
}

func (e *DeviceOfflineError) Error() string {
	return fmt.Sprintf("device is offline: %s", e.DeviceID)
}

// RelayCallError wraps any other failure of a relay call made by the Hub itself.
type RelayCallError struct {
	Op  string
	Err error
}

func (e *RelayCallError) Error() string {
	return fmt.Sprintf("relay call %s failed: %v", e.Op, e.Err)
}

func (e *RelayCallError) Unwrap() error {
	return e.Err
}

// IsDeviceOffline returns true if err is, or wraps, a DeviceOfflineError.
func IsDeviceOffline(err error) bool {
	var doe *DeviceOfflineError
	return errors.As(err, &doe)
}
