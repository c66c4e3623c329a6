package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type bankReg struct {
	regPtr any
	offset uint16
}

// regTag holds the parsed content of a `hwio:"..."` struct tag.
type regTag struct {
	offset    int // -1 when missing
	bank      int
	reset     uint64
	rwmask    uint64
	hasRWMask bool
	size      int
	readonly  bool
	writeonly bool

	// callback method names, empty if none
	rcb, wcb, pcb string
}

func parseRegTag(field, tag string) (regTag, error) {
	rt := regTag{offset: -1}
	for opt := range strings.SplitSeq(tag, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, hasval := strings.Cut(opt, "=")

		num := func() (uint64, error) {
			if !hasval {
				return 0, fmt.Errorf("%s: option %q requires a value", field, key)
			}
			n, err := strconv.ParseUint(val, 0, 64)
			if err != nil {
				return 0, fmt.Errorf("%s: option %q: %w", field, key, err)
			}
			return n, nil
		}
		cbname := func(prefix string) string {
			if hasval {
				return val
			}
			return prefix + strings.ToUpper(field)
		}

		var (
			n   uint64
			err error
		)
		switch key {
		case "offset":
			n, err = num()
			rt.offset = int(n)
		case "bank":
			n, err = num()
			rt.bank = int(n)
		case "reset":
			rt.reset, err = num()
		case "rwmask":
			rt.rwmask, err = num()
			rt.hasRWMask = true
		case "size":
			n, err = num()
			rt.size = int(n)
		case "readonly":
			rt.readonly = true
		case "writeonly":
			rt.writeonly = true
		case "rcb":
			rt.rcb = cbname("Read")
		case "wcb":
			rt.wcb = cbname("Write")
		case "pcb":
			rt.pcb = cbname("Peek")
		default:
			err = fmt.Errorf("%s: unknown hwio option %q", field, key)
		}
		if err != nil {
			return rt, err
		}
	}
	if rt.readonly && rt.writeonly {
		return rt, fmt.Errorf("%s: readonly and writeonly are exclusive", field)
	}
	return rt, nil
}

func (rt regTag) flags() RWFlags {
	switch {
	case rt.readonly:
		return ReadOnlyFlag
	case rt.writeonly:
		return WriteOnlyFlag
	}
	return ReadWriteFlag
}

func bankStruct(bank any) (reflect.Value, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("hwio: bank must be a pointer to struct, got %T", bank)
	}
	return v, nil
}

// method looks up the named method on the bank and converts it to the
// callback type pointed to by dst.
func method(bank reflect.Value, name string, dst any) error {
	m := bank.MethodByName(name)
	if !m.IsValid() {
		return fmt.Errorf("hwio: %s has no method %s", bank.Type(), name)
	}
	d := reflect.ValueOf(dst).Elem()
	if !m.Type().ConvertibleTo(d.Type()) {
		return fmt.Errorf("hwio: %s.%s has type %s, want %s", bank.Type(), name, m.Type(), d.Type())
	}
	d.Set(m.Convert(d.Type()))
	return nil
}

// InitRegs initializes every Reg8 and Device field of the bank that carries a
// hwio struct tag: name, reset value, write mask, access flags and callbacks.
func InitRegs(bank any) error {
	v, err := bankStruct(bank)
	if err != nil {
		return err
	}
	s := v.Elem()
	typ := s.Type()
	for i := range typ.NumField() {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseRegTag(f.Name, tag)
		if err != nil {
			return err
		}

		switch r := s.Field(i).Addr().Interface().(type) {
		case *Reg8:
			*r = Reg8{
				Name:  f.Name,
				Value: uint8(rt.reset),
				Flags: rt.flags(),
			}
			if rt.hasRWMask {
				r.RoMask = ^uint8(rt.rwmask)
			}
			if rt.rcb != "" {
				if err := method(v, rt.rcb, &r.ReadCb); err != nil {
					return err
				}
			}
			if rt.pcb != "" {
				if err := method(v, rt.pcb, &r.PeekCb); err != nil {
					return err
				}
			}
			if rt.wcb != "" {
				if err := method(v, rt.wcb, &r.WriteCb); err != nil {
					return err
				}
			}
		case *Device:
			if rt.size == 0 {
				return fmt.Errorf("%s: device requires a size", f.Name)
			}
			*r = Device{
				Name:  f.Name,
				Size:  rt.size,
				Flags: rt.flags(),
			}
			if rt.rcb != "" {
				if err := method(v, rt.rcb, &r.ReadCb); err != nil {
					return err
				}
			}
			if rt.pcb != "" {
				if err := method(v, rt.pcb, &r.PeekCb); err != nil {
					return err
				}
			}
			if rt.wcb != "" {
				if err := method(v, rt.wcb, &r.WriteCb); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("%s: hwio tag on unsupported type %s", f.Name, f.Type)
		}
	}
	return nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	v, err := bankStruct(bank)
	if err != nil {
		return nil, err
	}
	s := v.Elem()
	typ := s.Type()

	var regs []bankReg
	for i := range typ.NumField() {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseRegTag(f.Name, tag)
		if err != nil {
			return nil, err
		}
		if rt.offset < 0 || rt.bank != bankNum {
			continue
		}
		regs = append(regs, bankReg{
			regPtr: s.Field(i).Addr().Interface(),
			offset: uint16(rt.offset),
		})
	}
	return regs, nil
}
