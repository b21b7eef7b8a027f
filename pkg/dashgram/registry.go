package dashgram

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Framework identifies a supported bot library.
type Framework string

// Frameworks with an adapter in this repository.
const (
	FrameworkTelegramBotAPI Framework = "telegram-bot-api"
	FrameworkGoTelegram     Framework = "go-telegram"
	FrameworkTelebot        Framework = "telebot"
)

// ConvertFunc converts a framework object into a canonical Event.
type ConvertFunc func(obj any, kind HandlerKind) (Event, error)

// AdapterInfo describes a registered adapter.
type AdapterInfo struct {
	// Framework is the registry key.
	Framework Framework

	// Label is the human readable name appended to the default origin.
	Label string

	// Packages lists the Go package path roots whose types the adapter
	// converts (e.g. "gopkg.in/telebot.v3").
	Packages []string
}

// Adapter bridges one bot library to the tracking client.
type Adapter interface {
	AdapterInfo() AdapterInfo

	// Convert exports a native object. Updates ignore kind; any other
	// object needs one.
	Convert(obj any, kind HandlerKind) (Event, error)

	// Bind installs a tracking observer into target, the library's
	// dispatch extension point.
	Bind(t Tracker, target any) error
}

var (
	adapters   = make(map[Framework]Adapter)
	adaptersMu sync.RWMutex
)

// RegisterAdapter makes an adapter available. It panics on an empty or
// duplicate framework. Intended to be called from init() functions.
func RegisterAdapter(a Adapter) {
	info := a.AdapterInfo()
	if info.Framework == "" {
		panic("dashgram: adapter framework must not be empty")
	}
	if len(info.Packages) == 0 {
		panic(fmt.Sprintf("dashgram: adapter %s declares no packages", info.Framework))
	}

	adaptersMu.Lock()
	defer adaptersMu.Unlock()

	if _, exists := adapters[info.Framework]; exists {
		panic(fmt.Sprintf("dashgram: adapter already registered: %s", info.Framework))
	}
	adapters[info.Framework] = a
}

// GetAdapter returns the adapter for fw, or false if it is not linked.
func GetAdapter(fw Framework) (Adapter, bool) {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()
	a, ok := adapters[fw]
	return a, ok
}

// Available reports whether the adapter for fw is linked into the binary.
func Available(fw Framework) bool {
	_, ok := GetAdapter(fw)
	return ok
}

// Adapters returns all registered adapters sorted by framework.
func Adapters() []Adapter {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()

	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	slices.SortFunc(result, func(a, b Adapter) int {
		return cmp.Compare(a.AdapterInfo().Framework, b.AdapterInfo().Framework)
	})
	return result
}

// Resolve returns the conversion function of the adapter whose package
// roots contain obj's type, or nil when no adapter recognizes it.
func Resolve(obj any) ConvertFunc {
	pkg := packageOf(obj)
	if pkg == "" {
		return nil
	}
	for _, a := range Adapters() {
		for _, root := range a.AdapterInfo().Packages {
			if matchesPackage(pkg, root) {
				return a.Convert
			}
		}
	}
	return nil
}

// matchesPackage reports whether pkg is root or one of its sub packages.
func matchesPackage(pkg, root string) bool {
	return pkg == root || strings.HasPrefix(pkg, root+"/")
}

// ResolveActiveFramework returns the label of the first linked adapter, or
// "" when none is linked.
func ResolveActiveFramework() string {
	all := Adapters()
	if len(all) == 0 {
		return ""
	}
	return all[0].AdapterInfo().Label
}

// packageOf returns the package path of obj's named type, looking through
// pointers.
func packageOf(obj any) string {
	if obj == nil {
		return ""
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath()
}

// resetRegistry clears the registry. Only for testing.
func resetRegistry() {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	adapters = make(map[Framework]Adapter)
}
