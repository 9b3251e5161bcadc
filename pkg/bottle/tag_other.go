//go:build !darwin

package bottle

func macOSVersion() (string, error) { return "", nil }
