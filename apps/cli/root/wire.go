package root

import (
	"github.com/zenGate-Global/palmyra-storefront/apps/cli/cmd/auth"
	"github.com/zenGate-Global/palmyra-storefront/apps/cli/cmd/bootstrap"
	"github.com/zenGate-Global/palmyra-storefront/apps/cli/cmd/demo"
	"github.com/zenGate-Global/palmyra-storefront/apps/cli/cmd/host"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(host.Command())
	Root().AddCommand(demo.Command())
}
