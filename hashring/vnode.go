package hashring

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// VirtualNode is a single position on the ring: a hash value paired with
// the server that owns it. Virtual nodes are immutable once created and
// ordered by Hash ascending.
type VirtualNode[S comparable] struct {
	Hash   uint32
	Server S
}

// serverKey produces the stable textual form of a server used for virtual
// node placement and set membership. Types implementing fmt.Stringer
// supply their own canonical representation; everything else uses the Go
// value form (numeric types render in decimal).
func serverKey[S comparable](server S) string {
	if s, ok := any(server).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", server)
}

// isNilServer reports whether server is absent: a nil pointer/channel or a
// value whose stable key is empty.
func isNilServer[S comparable](server S) bool {
	v := reflect.ValueOf(server)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return true
		}
	}
	return serverKey(server) == ""
}

// placeVirtualNodes computes the virtual nodes for server with the given
// count under h. Node i hashes the key "<serverKey>:<i>". The result is
// in index order; sorting happens at snapshot time.
func placeVirtualNodes[S comparable](h Hasher, server S, count int) ([]VirtualNode[S], error) {
	key := serverKey(server)
	nodes := make([]VirtualNode[S], 0, count)
	for i := 0; i < count; i++ {
		pos, err := ringPosition(h, []byte(key+":"+strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, VirtualNode[S]{Hash: pos, Server: server})
	}
	return nodes, nil
}

// sortVirtualNodes orders nodes by hash ascending. The sort is stable so
// hash collisions keep their insertion order.
func sortVirtualNodes[S comparable](nodes []VirtualNode[S]) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Hash < nodes[j].Hash
	})
}
