//go:build selftest

package profile

import _ "embed"

//go:embed selftest.yaml
var embedded []byte
