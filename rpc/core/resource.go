package core

// Resource is something that has to be released when the work it belongs to
// ends: a pending response registration, a timer, a parked request.
type Resource interface {
	Close()
}

// ResourceFunc adapts a function to the Resource interface
type ResourceFunc func()

func (f ResourceFunc) Close() {
	if f != nil {
		f()
	}
}

// noopResource is returned where nothing needs releasing
var noopResource = ResourceFunc(nil)

// ResourceID identifies an entry of a ResourceList
type ResourceID uint64

// ResourceList collects resources so that they can be released together.
// Like everything bound to a context it is not safe for concurrent use.
type ResourceList struct {
	items map[ResourceID]Resource
	next  ResourceID
}

// Add stores r and returns the id to remove it again
func (l *ResourceList) Add(r Resource) ResourceID {
	if l.items == nil {
		l.items = make(map[ResourceID]Resource)
	}
	l.next++
	l.items[l.next] = r
	return l.next
}

// Remove forgets a resource without closing it
func (l *ResourceList) Remove(id ResourceID) {
	delete(l.items, id)
}

// Len returns the number of held resources
func (l *ResourceList) Len() int { return len(l.items) }

// Close closes and forgets every held resource
func (l *ResourceList) Close() {
	items := l.items
	l.items = nil
	for _, r := range items {
		r.Close()
	}
}
