package blueprint

import "github.com/cmmoran/proxytype/pkg/model"

// EventSlot is a declared event with add and remove accessors.
type EventSlot struct {
	bp     *Blueprint
	event  *model.Event
	attrs  model.MethodAttributes
	add    *MethodSlot
	remove *MethodSlot
}

func (s *EventSlot) Event() *model.Event { return s.event }

// CreateEvent declares an event carrying handlers of type handler. Accessors
// not created explicitly are declared with attrs when the blueprint is built.
func (b *Blueprint) CreateEvent(name string, attrs model.MethodAttributes, handler *model.Type) (*EventSlot, error) {
	if err := b.checkOpen("CreateEvent"); err != nil {
		return nil, err
	}
	e := &model.Event{Name: name, HandlerType: handler, DeclaringType: b.typ}
	b.typ.Events = append(b.typ.Events, e)
	slot := &EventSlot{bp: b, event: e, attrs: attrs}
	b.events = append(b.events, slot)
	return slot, nil
}

func (s *EventSlot) CreateAddMethod(attrs model.MethodAttributes) (*MethodSlot, error) {
	const op = "CreateAddMethod"
	if err := s.bp.checkOpen(op); err != nil {
		return nil, err
	}
	if s.add != nil {
		return nil, s.bp.usage(op, "event %s already has an add accessor", s.event.Name)
	}
	s.add = s.accessor("add_", attrs)
	s.event.Add = s.add.method
	return s.add, nil
}

func (s *EventSlot) CreateRemoveMethod(attrs model.MethodAttributes) (*MethodSlot, error) {
	const op = "CreateRemoveMethod"
	if err := s.bp.checkOpen(op); err != nil {
		return nil, err
	}
	if s.remove != nil {
		return nil, s.bp.usage(op, "event %s already has a remove accessor", s.event.Name)
	}
	s.remove = s.accessor("remove_", attrs)
	s.event.Remove = s.remove.method
	return s.remove, nil
}

func (s *EventSlot) accessor(prefix string, attrs model.MethodAttributes) *MethodSlot {
	m := model.NewMethod(prefix+s.event.Name, s.bp.normalize(attrs|model.MethodSpecialName), nil,
		model.NewParameter("handler", s.event.HandlerType))
	return s.bp.declare(m, nil)
}

// complete declares whichever accessor is still missing.
func (s *EventSlot) complete() {
	if s.add == nil {
		s.add = s.accessor("add_", s.attrs)
		s.event.Add = s.add.method
	}
	if s.remove == nil {
		s.remove = s.accessor("remove_", s.attrs)
		s.event.Remove = s.remove.method
	}
}
