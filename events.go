package myjd

// DeviceAdded is raised when a device joins the online set.
type DeviceAdded struct {
	Device Device
}

// DeviceRemoved is raised when a device is no longer reported by the relay.
type DeviceRemoved struct {
	Device Device
}
