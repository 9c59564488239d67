package bridge

import "slices"

// rootSet holds addresses of native slots whose current contents are always
// reachable. The slot is read at mark time, not at registration.
type rootSet struct {
	addrs []*Value
}

func (rs *rootSet) register(addr *Value) {
	if addr == nil {
		return
	}
	rs.addrs = append(rs.addrs, addr)
}

// unregister drops every registration of addr. Unknown addresses are ignored.
func (rs *rootSet) unregister(addr *Value) {
	rs.addrs = slices.DeleteFunc(rs.addrs, func(a *Value) bool { return a == addr })
}
