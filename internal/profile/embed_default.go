//go:build !selftest

package profile

import _ "embed"

//go:embed default.yaml
var embedded []byte
