package definition

import (
	"fmt"
	"log/slog"

	"github.com/cmmoran/proxytype/pkg/blueprint"
	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/model"
)

// pendingBody is a body whose instructions are emitted once every member of
// its type has been declared.
type pendingBody struct {
	member string
	r      *resolver
	g      emit.ILGenerator
	locals []string
	instrs []*Instruction
}

type applier struct {
	log     *slog.Logger
	file    *File
	root    *resolver
	pending []pendingBody
}

// Apply builds every type of f through scope and returns the baked types,
// nested ones included. Types are built in file order; each becomes visible
// by name to the types after it. A nil log uses slog.Default.
func Apply(log *slog.Logger, scope *blueprint.Scope, f *File, reg *Registry, opts ...blueprint.Option) ([]*model.Type, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &applier{log: log.With("definition", f.Path), file: f, root: newResolver(reg)}
	var built []*model.Type
	for _, td := range f.Types {
		base, ifaces, err := a.heritage(td)
		if err != nil {
			return built, fmt.Errorf("type %s: %w", td.Name, err)
		}
		bopts := append(append([]blueprint.Option(nil), opts...), a.typeOptions(td)...)
		bp, err := scope.Blueprint(td.Name, shape(td), base, ifaces, bopts...)
		if err != nil {
			return built, err
		}
		a.pending = a.pending[:0]
		if err := a.populate(bp, td); err != nil {
			return built, fmt.Errorf("type %s: %w", td.Name, err)
		}
		if _, err := bp.BuildType(); err != nil {
			return built, fmt.Errorf("type %s: %w", td.Name, err)
		}
		built = appendBuilt(built, bp)
		a.log.With("type", bp.Type().FullName()).Debug("definition applied")
	}
	return built, nil
}

func appendBuilt(out []*model.Type, bp *blueprint.Blueprint) []*model.Type {
	out = append(out, bp.Type())
	for _, n := range bp.Nested() {
		out = appendBuilt(out, n)
	}
	return out
}

func shape(td *Type) blueprint.Shape {
	if td.IsInterface() {
		return blueprint.ShapeInterface
	}
	return blueprint.ShapeClass
}

func (a *applier) typeOptions(td *Type) []blueprint.Option {
	var opts []blueprint.Option
	if a.file.Namespace != "" {
		opts = append(opts, blueprint.WithNamespace(a.file.Namespace))
	}
	var attrs model.TypeAttributes
	if td.Abstract {
		attrs |= model.TypeAbstract
	}
	if td.Sealed {
		attrs |= model.TypeSealed
	}
	if attrs != 0 {
		opts = append(opts, blueprint.WithAttributes(attrs))
	}
	return opts
}

// heritage resolves base and interfaces. They are resolved before the
// type's own generic parameters exist and so can not refer to them.
func (a *applier) heritage(td *Type) (*model.Type, []*model.Type, error) {
	var base *model.Type
	if td.Base != "" {
		if td.IsInterface() {
			return nil, nil, fmt.Errorf("%w: interface %s can not have a base", ErrInvalid, td.Name)
		}
		b, err := a.root.resolve(td.Base)
		if err != nil {
			return nil, nil, err
		}
		base = b
	}
	ifaces, err := a.root.resolveAll(td.Interfaces)
	if err != nil {
		return nil, nil, err
	}
	return base, ifaces, nil
}

// populate declares the members of td, then its nested types, then emits
// the recorded bodies.
func (a *applier) populate(bp *blueprint.Blueprint, td *Type) error {
	t := bp.Type()
	a.root.local[td.Name] = t

	switch {
	case td.From != "":
		tmpl, err := a.root.resolve(td.From)
		if err != nil {
			return err
		}
		if _, err := bp.CopyGenericParametersFrom(tmpl); err != nil {
			return err
		}
	case len(td.Generics) > 0:
		if _, err := bp.SetGenericTypeParameters(td.Generics...); err != nil {
			return err
		}
	}
	params := make(map[string]*model.GenericParam, len(t.GenericParams))
	for _, p := range t.GenericParams {
		params[p.Name] = p
	}
	r := a.root.with(params)

	start := len(a.pending)
	for _, fd := range td.Fields {
		if err := a.field(bp, r, fd); err != nil {
			return err
		}
	}
	for i, cd := range td.Constructors {
		args, err := r.resolveAll(cd.Args)
		if err != nil {
			return fmt.Errorf("constructor %d: %w", i, err)
		}
		slot, err := bp.CreateConstructor(args...)
		if err != nil {
			return err
		}
		a.record(fmt.Sprintf("constructor %d", i), r, slot.IL, nil, cd.Body)
	}
	if len(td.Initializer) > 0 {
		slot, err := bp.CreateTypeConstructor()
		if err != nil {
			return err
		}
		a.record("initializer", r, slot.IL, nil, td.Initializer)
	}
	for _, pd := range td.Properties {
		if err := a.property(bp, r, pd); err != nil {
			return fmt.Errorf("property %s: %w", pd.Name, err)
		}
	}
	for _, md := range td.Methods {
		if err := a.method(bp, r, md); err != nil {
			return fmt.Errorf("method %s: %w", md.Name, err)
		}
	}
	for _, ed := range td.Events {
		handler, err := r.resolve(ed.Handler)
		if err != nil {
			return fmt.Errorf("event %s: %w", ed.Name, err)
		}
		if _, err := bp.CreateEvent(ed.Name, model.MethodPublic, handler); err != nil {
			return err
		}
	}
	for _, nd := range td.Nested {
		base, ifaces, err := a.heritage(nd)
		if err != nil {
			return fmt.Errorf("nested %s: %w", nd.Name, err)
		}
		child, err := bp.CreateNested(nd.Name, shape(nd), base, ifaces, a.typeOptions(nd)...)
		if err != nil {
			return err
		}
		if err := a.populate(child, nd); err != nil {
			return fmt.Errorf("nested %s: %w", nd.Name, err)
		}
	}

	for _, p := range a.pending[start:] {
		if err := emitBody(p.g, bp, p.r, p.locals, p.instrs); err != nil {
			return fmt.Errorf("%s: %w", p.member, err)
		}
	}
	a.pending = a.pending[:start]
	return nil
}

// record queues a body for emission after all members exist. The generator
// is only requested when there are instructions, so members without a body
// keep their defaults.
func (a *applier) record(member string, r *resolver, il func() emit.ILGenerator, locals []string, instrs []*Instruction) {
	if len(instrs) == 0 {
		return
	}
	a.pending = append(a.pending, pendingBody{member: member, r: r, g: il(), locals: locals, instrs: instrs})
}

func (a *applier) field(bp *blueprint.Blueprint, r *resolver, fd *Field) error {
	typ, err := r.resolve(fd.Type)
	if err != nil {
		return fmt.Errorf("field %s: %w", fd.Name, err)
	}
	if fd.Static {
		_, err = bp.CreateStaticField(fd.Name, typ)
		return err
	}
	attrs := model.FieldPrivate
	if fd.Public {
		attrs = model.FieldPublic
	}
	_, err = bp.CreateField(fd.Name, typ, attrs)
	return err
}

func (a *applier) property(bp *blueprint.Blueprint, r *resolver, pd *Property) error {
	typ, err := r.resolve(pd.Type)
	if err != nil {
		return err
	}
	index, err := r.resolveAll(pd.Index)
	if err != nil {
		return err
	}
	slot, err := bp.CreateProperty(pd.Name, model.PropertyNone, typ, index...)
	if err != nil {
		return err
	}
	attrs := model.MethodAccessor
	if pd.Virtual {
		attrs |= model.MethodVirtual
	}
	get, set := pd.Get, pd.Set
	if !get && !set {
		get, set = true, true
	}
	if get {
		if _, err := slot.CreateGetMethod(attrs); err != nil {
			return err
		}
	}
	if set {
		if _, err := slot.CreateSetMethod(attrs); err != nil {
			return err
		}
	}
	if pd.Backing != "" {
		f, ok := bp.GetField(pd.Backing)
		if !ok {
			return fmt.Errorf("%w: backing field %s", ErrUnknownType, pd.Backing)
		}
		return slot.BackedBy(f)
	}
	return nil
}

func (a *applier) method(bp *blueprint.Blueprint, r *resolver, md *Method) error {
	attrs := model.MethodPublic | model.MethodHideBySig
	if md.Static {
		attrs |= model.MethodStatic
	}
	if md.Virtual {
		attrs |= model.MethodVirtual
	}
	if md.Abstract {
		attrs |= model.MethodAbstract | model.MethodVirtual
	}

	var slot *blueprint.MethodSlot
	if md.Template != "" {
		tmpl, err := r.method(md.Template)
		if err != nil {
			return err
		}
		if slot, err = bp.CreateMethodFromTemplate(md.Name, attrs, tmpl); err != nil {
			return err
		}
	} else {
		ret, err := r.resolve(md.Returns)
		if err != nil {
			return err
		}
		args, err := r.resolveAll(md.Args)
		if err != nil {
			return err
		}
		if slot, err = bp.CreateMethod(md.Name, attrs, ret, args...); err != nil {
			return err
		}
	}
	if mps := slot.Method().GenericParams; len(mps) > 0 {
		params := make(map[string]*model.GenericParam, len(r.params)+len(mps))
		for n, p := range r.params {
			params[n] = p
		}
		for _, p := range mps {
			params[p.Name] = p
		}
		r = r.with(params)
	}
	a.record("method "+md.Name, r, slot.IL, md.Locals, md.Body)
	return nil
}
