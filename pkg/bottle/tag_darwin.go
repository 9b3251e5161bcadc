package bottle

import "golang.org/x/sys/unix"

func macOSVersion() (string, error) {
	return unix.Sysctl("kern.osproductversion")
}
