package method

import (
	"github.com/agerun/agerun/eventlog"
)

// Methodology is the registry mapping method names to their registered
// versions. Versions of one name are kept ordered ascending, so the
// latest version is always the last entry. Registration order of names
// is preserved for stable persistence output.
type Methodology struct {
	log     *eventlog.Log
	methods map[string][]*Method
	names   []string // definition order
}

// NewMethodology creates an empty registry reporting to log.
func NewMethodology(log *eventlog.Log) *Methodology {
	return &Methodology{
		log:     log,
		methods: make(map[string][]*Method),
		names:   make([]string, 0),
	}
}

// Register adds a method. A method with the same name and version as an
// existing entry is rejected; methods are immutable once registered.
func (m *Methodology) Register(meth *Method) bool {
	if meth == nil || meth.Name == "" {
		return false
	}
	versions, known := m.methods[meth.Name]
	for _, existing := range versions {
		if existing.Version.Compare(meth.Version) == 0 {
			if m.log != nil {
				m.log.Errorf("method %s version %s is already registered", meth.Name, meth.Version)
			}
			return false
		}
	}
	if !known {
		m.names = append(m.names, meth.Name)
	}

	// Insert keeping the version list ordered ascending
	pos := len(versions)
	for i, existing := range versions {
		if existing.Version.Compare(meth.Version) > 0 {
			pos = i
			break
		}
	}
	versions = append(versions, nil)
	copy(versions[pos+1:], versions[pos:])
	versions[pos] = meth
	m.methods[meth.Name] = versions
	return true
}

// Lookup returns the method registered under exactly (name, version), or
// nil when absent.
func (m *Methodology) Lookup(name string, version Version) *Method {
	for _, meth := range m.methods[name] {
		if meth.Version.Compare(version) == 0 {
			return meth
		}
	}
	return nil
}

// Latest returns the highest registered version of name, or nil when the
// name is unknown.
func (m *Methodology) Latest(name string) *Method {
	versions := m.methods[name]
	if len(versions) == 0 {
		return nil
	}
	return versions[len(versions)-1]
}

// Resolve looks up name by version text. An empty or "0" version selects
// the latest registered version.
func (m *Methodology) Resolve(name string, versionText string) *Method {
	if versionText == "" || versionText == "0" {
		return m.Latest(name)
	}
	version, err := ParseVersion(versionText)
	if err != nil {
		return nil
	}
	return m.Lookup(name, version)
}

// Deprecate unregisters (name, version). Agents holding a reference to
// the method keep it alive; only future lookups fail. Reports whether an
// entry was removed.
func (m *Methodology) Deprecate(name string, version Version) bool {
	versions := m.methods[name]
	for i, meth := range versions {
		if meth.Version.Compare(version) == 0 {
			m.methods[name] = append(versions[:i], versions[i+1:]...)
			if len(m.methods[name]) == 0 {
				delete(m.methods, name)
				for j, n := range m.names {
					if n == name {
						m.names = append(m.names[:j], m.names[j+1:]...)
						break
					}
				}
			}
			return true
		}
	}
	return false
}

// Names returns the registered method names in definition order.
func (m *Methodology) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// VersionsOf returns the registered versions of name, ordered ascending.
func (m *Methodology) VersionsOf(name string) []*Method {
	versions := m.methods[name]
	out := make([]*Method, len(versions))
	copy(out, versions)
	return out
}

// Count returns the total number of registered (name, version) entries.
func (m *Methodology) Count() int {
	total := 0
	for _, versions := range m.methods {
		total += len(versions)
	}
	return total
}

// Clear removes every registered method.
func (m *Methodology) Clear() {
	m.methods = make(map[string][]*Method)
	m.names = m.names[:0]
}
