package robotinput

const globalSourceIdentity = "robotgo-global"

type DeviceInfo struct {
	Path      string
	Name      string
	IsVirtual bool
	IsPointer bool
}
