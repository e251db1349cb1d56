package components

type Variant string

const (
	VariantDefault Variant = "default"
	VariantGhost   Variant = "ghost"
	VariantOutline Variant = "outline"
	VariantDanger  Variant = "danger"
)

const buttonBase = "inline-flex items-center justify-center rounded-md px-4 py-2 text-sm font-medium transition-colors"

var buttonVariants = map[Variant]string{
	VariantDefault: "bg-emerald-600 text-white hover:bg-emerald-700",
	VariantGhost:   "bg-transparent text-gray-700 hover:bg-gray-100",
	VariantOutline: "border border-emerald-600 bg-white text-emerald-700 hover:bg-emerald-50",
	VariantDanger:  "bg-red-600 text-white hover:bg-red-700",
}

// ButtonClass returns the classes of a button of the given variant with
// extra merged on top.
func ButtonClass(v Variant, extra ...string) string {
	variant, ok := buttonVariants[v]
	if !ok {
		variant = buttonVariants[VariantDefault]
	}
	return Class(append([]string{buttonBase, variant}, extra...)...)
}
