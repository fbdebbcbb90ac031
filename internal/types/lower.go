package types

// Lower interns a ground High type into the low Store, producing a
// structurally-interned TypeId. An Instantiated is resolved and its result
// lowered; any other High that is not ground (UVar, Number, Invalid)
// lowers to Invalid, so substitution and numeric defaulting must already
// be applied (spec §3: "after C3 every high type reduces to a ground form
// or is marked Invalid") before calling Lower.
func Lower(store *Store, t High) TypeId {
	switch t := t.(type) {
	case Range:
		return store.Intern(Shape{Kind: ShapeRange, Range: t})
	case Function:
		return store.Intern(Shape{
			Kind:    ShapeFunction,
			Params:  lowerAll(store, t.Params),
			Returns: lowerAll(store, t.Returns),
		})
	case Product:
		return store.Intern(Shape{Kind: ShapeProduct, Elems: lowerAll(store, t.Elems)})
	case Record:
		fields := make([]LowField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = LowField{Label: f.Label, Type: Lower(store, f.Type)}
		}
		return store.Intern(Shape{Kind: ShapeRecord, Fields: fields})
	case Named:
		return store.Intern(Shape{
			Kind:     ShapeNamed,
			Named:    t.Name,
			NamedArg: lowerAll(store, t.Args),
		})
	case Instantiated:
		return Lower(store, t.Resolve())
	default:
		return InvalidTypeId
	}
}

func lowerAll(store *Store, ts []High) []TypeId {
	out := make([]TypeId, len(ts))
	for i, t := range ts {
		out[i] = Lower(store, t)
	}
	return out
}

// Raise converts an interned low Shape back to a High type, for passes
// (the pretty-printer, the partial evaluator's static-value typing) that
// want to reuse the High-type structural helpers on already-solved types.
func Raise(store *Store, id TypeId) High {
	shape := store.ShapeOf(id)
	switch shape.Kind {
	case ShapeRange:
		return shape.Range
	case ShapeFunction:
		return Function{Params: raiseAll(store, shape.Params), Returns: raiseAll(store, shape.Returns)}
	case ShapeProduct:
		return Product{Elems: raiseAll(store, shape.Elems)}
	case ShapeRecord:
		fields := make([]Field, len(shape.Fields))
		for i, f := range shape.Fields {
			fields[i] = Field{Label: f.Label, Type: Raise(store, f.Type)}
		}
		return Record{Fields: fields}
	case ShapeNamed:
		return Named{Name: shape.Named, Args: raiseAll(store, shape.NamedArg)}
	default:
		return Invalid{Reason: "low invalid shape"}
	}
}

func raiseAll(store *Store, ids []TypeId) []High {
	out := make([]High, len(ids))
	for i, id := range ids {
		out[i] = Raise(store, id)
	}
	return out
}
