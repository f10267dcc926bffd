package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/heapview/collections"
	"github.com/wippyai/heapview/metadata"
	"github.com/wippyai/heapview/remote"
	"github.com/wippyai/heapview/snapshot"
)

// exitCritical is returned by diff when offsets or sizes changed.
const exitCritical = 2

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain runs the command and returns the process exit code, so deferred
// cleanup such as flushing the logger runs before exit.
func realMain(args []string) int {
	if len(args) > 0 && args[0] == "diff" {
		return runDiff(args[1:])
	}

	fs := flag.NewFlagSet("heapview", flag.ContinueOnError)
	var (
		imagePath   = fs.String("image", "", "Path to heap image manifest")
		className   = fs.String("class", "", "Describe a class by name")
		rootName    = fs.String("root", "", "Named root to inspect")
		addrStr     = fs.String("addr", "", "Object address to inspect (hex)")
		fieldStr    = fs.String("field", "", "Field to read: name, name|fallback, or 0x offset")
		kindStr     = fs.String("kind", "i32", "Field kind: i32, f32, bool, ptr")
		setStr      = fs.String("set", "", "Write this value to -field")
		listMode    = fs.Bool("list", false, "Enumerate the object as a list or array")
		mapMode     = fs.Bool("map", false, "Enumerate the object as a hash map")
		interactive = fs.Bool("i", false, "Interactive object browser")
		verbose     = fs.Bool("v", false, "Verbose logging")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: heapview -image <heap.yaml> -class <name>")
		fmt.Fprintln(os.Stderr, "       heapview -image <heap.yaml> -root <name> [-field f -kind k [-set v]] [-list|-map]")
		fmt.Fprintln(os.Stderr, "       heapview -image <heap.yaml> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       heapview diff <old-schema> <new-schema>")
		return 1
	}

	log := newLogger(*verbose, *interactive)
	defer log.Sync()
	remote.SetLogger(log)
	metadata.SetLogger(log)
	snapshot.SetLogger(log)

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			return 1
		}
		if err := runInteractive(*imagePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	q := query{
		class: *className,
		root:  *rootName,
		addr:  *addrStr,
		field: *fieldStr,
		kind:  *kindStr,
		set:   *setStr,
		list:  *listMode,
		dict:  *mapMode,
	}
	if err := run(*imagePath, q); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(verbose, interactive bool) *zap.Logger {
	if verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			return l
		}
	}
	if interactive {
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

type query struct {
	class string
	root  string
	addr  string
	field string
	kind  string
	set   string
	list  bool
	dict  bool
}

func run(imagePath string, q query) error {
	ctx := context.Background()

	img, err := snapshot.Open(ctx, imagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer img.Close(ctx)

	heap := img.Heap()

	if q.class != "" {
		cls, err := heap.ResolveClass(q.class)
		if err != nil {
			return err
		}
		printClass(img, cls)
		return nil
	}

	obj, err := target(img, heap, q.root, q.addr)
	if err != nil {
		return err
	}

	switch {
	case q.field != "":
		return field(obj, q)
	case q.list:
		printList(obj)
	case q.dict:
		printMap(obj)
	default:
		printObject(img, obj)
	}
	return nil
}

func target(img *snapshot.Image, heap *remote.Heap, root, addr string) (remote.Object, error) {
	switch {
	case root != "":
		a, err := img.Root(root)
		if err != nil {
			return heap.Null(), err
		}
		return heap.Object(a), nil
	case addr != "":
		a, err := strconv.ParseUint(strings.TrimPrefix(addr, "0x"), 16, 64)
		if err != nil {
			return heap.Null(), fmt.Errorf("parse address %q: %w", addr, err)
		}
		return heap.Object(a), nil
	default:
		return heap.Null(), fmt.Errorf("one of -class, -root or -addr is required (roots: %s)",
			strings.Join(img.RootNames(), ", "))
	}
}

func field(obj remote.Object, q query) error {
	f, err := remote.ParseField(q.field)
	if err != nil {
		return err
	}
	kind, err := remote.ParseKind(q.kind)
	if err != nil {
		return err
	}

	if q.set != "" {
		v, err := remote.ParseValue(kind, q.set)
		if err != nil {
			return fmt.Errorf("parse value: %w", err)
		}
		if err := obj.TryWrite(f, v); err != nil {
			return err
		}
		fmt.Printf("%s.%s = %s\n", obj, f, v)
		return nil
	}

	v, err := obj.TryRead(f, kind)
	if err != nil {
		return err
	}
	fmt.Printf("%s.%s = %s\n", obj, f, v)
	return nil
}

func printClass(img *snapshot.Image, cls *metadata.Class) {
	fmt.Printf("Class: %s\n", cls.Name)
	fmt.Printf("Handle: 0x%x\n", uint64(cls.Handle))
	if cls.HasSize {
		fmt.Printf("Instance size: 0x%x\n", cls.InstanceSize)
	}
	if cls.Element != nil {
		fmt.Printf("Element: %s\n", cls.Element.Name)
	}
	fields := img.Tables.Fields(cls.Handle)
	if len(fields) == 0 {
		return
	}
	fmt.Printf("\nFields:\n")
	for _, f := range fields {
		fmt.Printf("  0x%04x  %-24s %s\n", f.Offset, f.Name, f.Type)
	}
}

func printObject(img *snapshot.Image, obj remote.Object) {
	cls, err := obj.TryClass()
	if err != nil {
		fmt.Printf("Object: %s (class unresolved: %v)\n", obj, err)
		return
	}
	fmt.Printf("Object: %s\n", obj)
	fmt.Printf("Class: %s\n", cls.Name)
	if n := collections.CountOf(obj); n > 0 {
		fmt.Printf("Count: %d\n", n)
	}

	fmt.Printf("\nFields:\n")
	for _, r := range fieldRows(img, obj) {
		fmt.Printf("  0x%04x  %-24s %-16s %s\n", r.offset, r.name, r.typ, r.value)
	}
}

func printList(obj remote.Object) {
	var items collections.Array
	if cls := obj.Class(); cls != nil && cls.IsArray() {
		items = collections.ArrayOf(obj)
	} else {
		items = collections.ListOf(obj).Items()
	}
	fmt.Printf("Count: %d\n", items.Len())
	for i := range items.Len() {
		fmt.Printf("  [%d] %s\n", i, items.Get(i))
	}
}

func printMap(obj remote.Object) {
	m := collections.MapOf(obj)
	fmt.Printf("Count: %d (slots %d, free %d)\n", m.Count(), m.RawCount(), m.FreeCount())
	for _, e := range m.Entries() {
		fmt.Printf("  #%d %s => %s\n", e.Index, e.Key, e.Value)
	}
}

func runDiff(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: heapview diff <old-schema> <new-schema>")
		return 1
	}
	from, err := snapshot.LoadSchema(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	to, err := snapshot.LoadSchema(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	report := snapshot.Diff(from, to)
	if _, err := report.WriteTo(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if report.Critical() {
		return exitCritical
	}
	return 0
}
