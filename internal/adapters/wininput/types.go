package wininput

const globalSourceIdentity = "windows-global"

type DeviceInfo struct {
	Path      string
	Name      string
	IsVirtual bool
	IsPointer bool
}
