package handlers

import "github.com/openalgoflow/engine/pkg/types"

// interpolated returns node.Data with every string field (including
// nested maps/slices) passed through the execution context's template
// interpolator, so handlers never have to call Interpolate themselves.
func interpolated(ec *ExecContext, node types.Node) types.NodeData {
	out := ec.Vars.InterpolateValue(map[string]interface{}(node.Data))
	m, _ := out.(map[string]interface{})
	return types.NodeData(m)
}

func strField(d types.NodeData, key, def string) string {
	return d.GetStringDefault(key, def)
}

func intField(d types.NodeData, key string, def int) int {
	return d.GetIntDefault(key, def)
}

func floatField(d types.NodeData, key string, def float64) float64 {
	if f, ok := d.GetFloat(key); ok {
		return f
	}
	return def
}

// storeOutput saves value under d's configured outputVariable, mirroring
// handlers that let a node stash a gateway response for later nodes to
// read back out of the variable store. A no-op when outputVariable is
// blank or unset.
func storeOutput(ec *ExecContext, d types.NodeData, value interface{}) {
	name := strField(d, "outputVariable", "")
	if name == "" {
		return
	}
	ec.Vars.Set(name, value)
}
