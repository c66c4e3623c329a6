package hwio

import "testing"

func TestReg8(t *testing.T) {
	r := Reg8{Value: 0x11, RoMask: 0xF0}

	if got := r.Read8(0, false); got != 0x11 {
		t.Errorf("invalid read: %x", got)
	}
	if got := r.Read8(9999, false); got != 0x11 {
		t.Errorf("invalid read with offset: %x", got)
	}

	r.Write8(0, 0x77)
	if r.Value != 0x17 {
		t.Errorf("writemask not respected: %x", r.Value)
	}
	r.Write8(9999, 0x88)
	if r.Value != 0x18 {
		t.Errorf("writemask with offset not respected: %x", r.Value)
	}
}

func TestReg8WriteCallback(t *testing.T) {
	var gotOld, gotVal uint8
	r := Reg8{Value: 0x40, WriteCb: func(old, val uint8) { gotOld, gotVal = old, val }}

	r.Write8(0, 0x3f)
	if gotOld != 0x40 || gotVal != 0x3f {
		t.Errorf("WriteCb(old=%02x, val=%02x), want (40, 3f)", gotOld, gotVal)
	}
}

func TestParseRegTag(t *testing.T) {
	tests := []struct {
		tag     string
		wantErr bool
	}{
		{tag: "offset=0x3,reset=0x30,rwmask=0x3f,wcb"},
		{tag: "bank=1,offset=0x10,size=0x20,rcb,pcb=PeekFoo"},
		{tag: "offset", wantErr: true},
		{tag: "offset=zz", wantErr: true},
		{tag: "offset=1,readonly,writeonly", wantErr: true},
		{tag: "offset=1,frobnicate", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			_, err := parseRegTag("Foo", tt.tag)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseRegTag(%q) error = %v, wantErr %t", tt.tag, err, tt.wantErr)
			}
		})
	}
}

func TestParseRegTagCallbackNames(t *testing.T) {
	rt, err := parseRegTag("Ctrl", "offset=0,rcb,wcb,pcb=PeekStatus")
	if err != nil {
		t.Fatal(err)
	}
	if rt.rcb != "ReadCTRL" || rt.wcb != "WriteCTRL" || rt.pcb != "PeekStatus" {
		t.Errorf("callbacks = (%s, %s, %s), want (ReadCTRL, WriteCTRL, PeekStatus)", rt.rcb, rt.wcb, rt.pcb)
	}
}
