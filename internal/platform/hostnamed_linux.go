package platform

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/gvillage/startupapp/internal/conf"
)

const (
	hostnamedName = "org.freedesktop.hostname1"
	hostnamedPath = dbus.ObjectPath("/org/freedesktop/hostname1")
)

// hostnamedStep asks systemd-hostnamed for the descriptive host and
// operating system names. Containers and minimal systems often lack the
// system bus, which makes this step fail on its own.
func hostnamedStep() Step {
	return Step{
		Name: "hostname1",
		Collect: func(conf.ConfigMap) ([]Fact, error) {
			conn, err := dbus.SystemBus()
			if err != nil {
				return nil, fmt.Errorf("cannot connect to system bus: %w", err)
			}
			obj := conn.Object(hostnamedName, hostnamedPath)

			properties := []struct {
				key  string
				name string
			}{
				{conf.KeyOSPrettyName, "OperatingSystemPrettyName"},
				{conf.KeyPrettyHost, "PrettyHostname"},
			}
			var facts []Fact
			for _, prop := range properties {
				v, err := obj.GetProperty(hostnamedName + "." + prop.name)
				if err != nil {
					return facts, fmt.Errorf("cannot get %s: %w", prop.name, err)
				}
				s, ok := v.Value().(string)
				if !ok {
					return facts, fmt.Errorf("%s has type %s, expected string", prop.name, v.Signature())
				}
				facts = append(facts, Fact{Key: prop.key, Value: s})
			}
			return facts, nil
		},
	}
}
