package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleTrueValueConstant          = "true"
	toggleFalseValueConstant         = "false"
	toggleTypeNameConstant           = "bool"
	toggleInvalidValueTemplate       = "invalid toggle value %q"
	toggleUsagePlaceholderOnDefault  = "<YES|no>"
	toggleUsagePlaceholderOffDefault = "<yes|NO>"
)

var affirmativeToggleLiterals = map[string]bool{
	"true": true, "yes": true, "on": true, "1": true, "t": true, "y": true,
	"false": false, "no": false, "off": false, "0": false, "f": false, "n": false,
}

// AddToggleFlag registers a boolean flag accepting yes/no style literals in
// addition to true/false. Supplying the flag without a value enables it.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	toggleValue := newToggleValue(defaultValue, target)
	if len(shorthand) > 0 {
		flagSet.VarP(toggleValue, name, shorthand, usage)
	} else {
		flagSet.Var(toggleValue, name, usage)
	}

	registeredFlag := flagSet.Lookup(name)
	if registeredFlag == nil {
		return
	}
	registeredFlag.NoOptDefVal = toggleTrueValueConstant
	registeredFlag.Usage = describeToggleUsage(usage, defaultValue)
}

func describeToggleUsage(usage string, defaultValue bool) string {
	placeholder := toggleUsagePlaceholderOffDefault
	if defaultValue {
		placeholder = toggleUsagePlaceholderOnDefault
	}
	trimmedUsage := strings.TrimSpace(usage)
	if len(trimmedUsage) == 0 {
		return fmt.Sprintf("`%s`", placeholder)
	}
	return fmt.Sprintf("`%s` %s", placeholder, trimmedUsage)
}

type toggleValue struct {
	enabled bool
	target  *bool
}

func newToggleValue(defaultValue bool, target *bool) *toggleValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleValue{enabled: defaultValue, target: target}
}

func (value *toggleValue) Set(rawValue string) error {
	trimmedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(trimmedValue) == 0 {
		trimmedValue = toggleTrueValueConstant
	}

	parsedValue, recognized := affirmativeToggleLiterals[trimmedValue]
	if !recognized {
		return fmt.Errorf(toggleInvalidValueTemplate, rawValue)
	}

	value.enabled = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleValue) String() string {
	if value != nil && value.enabled {
		return toggleTrueValueConstant
	}
	return toggleFalseValueConstant
}

func (value *toggleValue) Type() string {
	return toggleTypeNameConstant
}
