package platform

import (
	"golang.org/x/sys/unix"

	"github.com/gvillage/startupapp/internal/conf"
)

func init() {
	Register("linux", linuxRoutine)
}

func linuxRoutine(p *Provider) []Step {
	return []Step{
		p.userIDStep(),
		processIDStep(),
		p.registryStep(),
		unameStep(),
		hostnamedStep(),
	}
}

// processIDStep reports the real user and group ids of the process.
func processIDStep() Step {
	return Step{
		Name: "process ids",
		Collect: func(conf.ConfigMap) ([]Fact, error) {
			return []Fact{
				{Key: conf.KeyUID, Value: unix.Getuid()},
				{Key: conf.KeyGID, Value: unix.Getgid()},
			}, nil
		},
	}
}

// unameStep reports the machine name and kernel identification.
func unameStep() Step {
	return Step{
		Name: "machine name",
		Collect: func(conf.ConfigMap) ([]Fact, error) {
			var u unix.Utsname
			if err := unix.Uname(&u); err != nil {
				return nil, err
			}
			return []Fact{
				{Key: conf.KeyComputerName, Value: unix.ByteSliceToString(u.Nodename[:])},
				{Key: conf.KeyOSSystem, Value: unix.ByteSliceToString(u.Sysname[:])},
				{Key: conf.KeyOSRelease, Value: unix.ByteSliceToString(u.Release[:])},
				{Key: conf.KeyOSVersion, Value: unix.ByteSliceToString(u.Version[:])},
				{Key: conf.KeyOSMachine, Value: unix.ByteSliceToString(u.Machine[:])},
			}, nil
		},
	}
}
