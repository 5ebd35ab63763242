package gpio

import "testing"

func TestNewDriver_Mock(t *testing.T) {
	drv, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver(true): %v", err)
	}
	if _, ok := drv.(*MockDriver); !ok {
		t.Fatalf("NewDriver(true) returned %T, want *MockDriver", drv)
	}
	if err := drv.SetupPin(17, InputPullUp); err != nil {
		t.Errorf("SetupPin: %v", err)
	}
	level, err := drv.ReadPin(17)
	if err != nil {
		t.Fatalf("ReadPin: %v", err)
	}
	if level != High {
		t.Errorf("mock pin level = %v, want High (button released)", level)
	}
	if err := drv.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
