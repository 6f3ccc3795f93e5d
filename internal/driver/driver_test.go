package driver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gaze.bridge/internal/babble"
	"github.com/banshee-data/gaze.bridge/internal/config"
	"github.com/banshee-data/gaze.bridge/internal/eyes"
	"github.com/banshee-data/gaze.bridge/internal/host"
	"github.com/banshee-data/gaze.bridge/internal/input"
	"github.com/banshee-data/gaze.bridge/internal/oscnet"
	"github.com/banshee-data/gaze.bridge/internal/testutil"
)

// fakeDriver records every call it receives.
type fakeDriver struct {
	init       bool
	calls      []string
	messages   []string
	regErr     error
	updateErr  error
	onRegister func(input.Host)
}

func (d *fakeDriver) ShouldInitialize() bool {
	d.calls = append(d.calls, "ShouldInitialize")
	return d.init
}

func (d *fakeDriver) RegisterInputs(h input.Host) error {
	d.calls = append(d.calls, "RegisterInputs")
	if d.onRegister != nil {
		d.onRegister(h)
	}
	return d.regErr
}

func (d *fakeDriver) UpdateInputs(float64) error {
	d.calls = append(d.calls, "UpdateInputs")
	return d.updateErr
}

func (d *fakeDriver) UpdateData(msg *osc.Message) {
	d.messages = append(d.messages, msg.Address)
}

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(host.EyesSnapshot) error { return p.err }

func newBridge(t *testing.T, cfg *config.Config) *Bridge {
	t.Helper()
	return NewBridge(config.NewStore(cfg))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		addr string
		want Route
	}{
		{"/LeftEyeX", RouteHandled},
		{"/LeftEyeY", RouteHandled},
		{"/RightEyeX", RouteHandled},
		{"/RightEyeY", RouteHandled},
		{"/LeftEyeLid", RouteHandled},
		{"/RightEyeLid", RouteHandled},
		{"/Foo", RouteDelegate},
		{"/jawOpen", RouteDelegate},
		{"/lefteyex", RouteDelegate},
		{"", RouteDelegate},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.addr))
		})
	}
	assert.Equal(t, "handled", RouteHandled.String())
	assert.Equal(t, "delegate", RouteDelegate.String())
}

func TestNewRedirector_NilInner(t *testing.T) {
	r, err := NewRedirector(nil, newBridge(t, nil))
	assert.ErrorIs(t, err, ErrNilDriver)
	assert.Nil(t, r)
}

func TestRedirector_ShouldInitialize(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		inner   bool
		want    bool
	}{
		{"enabled overrides inner", true, false, true},
		{"enabled and inner", true, true, true},
		{"disabled defers to inner", false, true, true},
		{"disabled and inner off", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &fakeDriver{init: tt.inner}
			r, err := NewRedirector(inner, newBridge(t, &config.Config{Enabled: config.Bool(tt.enabled)}))
			require.NoError(t, err)

			assert.Equal(t, tt.want, r.ShouldInitialize())
			assert.Equal(t, []string{"ShouldInitialize"}, inner.calls, "inner is always consulted")
		})
	}
}

func TestRedirector_RegisterInputsOrder(t *testing.T) {
	in := host.NewInput(true)
	var eyesFirst bool
	inner := &fakeDriver{onRegister: func(h input.Host) {
		assert.Same(t, in, h)
		_, eyesFirst = in.Eyes(eyes.DeviceName)
	}}
	r, err := NewRedirector(inner, newBridge(t, nil))
	require.NoError(t, err)

	require.NoError(t, r.RegisterInputs(in))
	assert.True(t, eyesFirst, "eyes are registered before the wrapped driver")
	assert.Equal(t, []string{"RegisterInputs"}, inner.calls)
}

func TestRedirector_RegisterInputsInnerError(t *testing.T) {
	boom := errors.New("mouth failed")
	r, err := NewRedirector(&fakeDriver{regErr: boom}, newBridge(t, nil))
	require.NoError(t, err)

	in := host.NewInput(true)
	assert.ErrorIs(t, r.RegisterInputs(in), boom)
	_, ok := in.Eyes(eyes.DeviceName)
	assert.True(t, ok)
}

func TestRedirector_UpdateInputsJoinsErrors(t *testing.T) {
	in := host.NewInput(true)
	commitErr := errors.New("commit failed")
	in.AddPublisher(failingPublisher{err: commitErr})
	innerErr := errors.New("mouth update failed")
	inner := &fakeDriver{updateErr: innerErr}

	r, err := NewRedirector(inner, newBridge(t, nil))
	require.NoError(t, err)
	require.NoError(t, r.RegisterInputs(in))

	err = r.UpdateInputs(0.011)
	assert.ErrorIs(t, err, commitErr)
	assert.ErrorIs(t, err, innerErr)
	assert.Contains(t, inner.calls, "UpdateInputs", "a failing eye commit never skips the wrapped update")
}

func TestRedirector_UpdateInputsBothSucceed(t *testing.T) {
	in := host.NewInput(true)
	inner := &fakeDriver{}
	r, err := NewRedirector(inner, newBridge(t, nil))
	require.NoError(t, err)
	require.NoError(t, r.RegisterInputs(in))

	assert.NoError(t, r.UpdateInputs(0.011))
	target, _ := in.Eyes(eyes.DeviceName)
	assert.Equal(t, int64(1), target.Snapshot().Commits)
}

func TestRedirector_Routing(t *testing.T) {
	cfg := config.NewStore(&config.Config{LegacyEnabled: config.Bool(true)})
	legacy := babble.NewDriver(cfg)
	bridge := NewBridge(cfg)
	r, err := NewRedirector(legacy, bridge)
	require.NoError(t, err)

	r.UpdateData(osc.NewMessage("/Foo", float32(1)))
	assert.Equal(t, eyes.Samples{}, bridge.Store().Snapshot(), "/Foo never touches the eye samples")
	assert.Equal(t, babble.Counters{Unknown: 1}, legacy.Counters(), "/Foo reaches the wrapped driver")

	r.UpdateData(osc.NewMessage("/LeftEyeX", float32(0.5)))
	assert.Equal(t, float32(0.5), bridge.Store().Get(eyes.LeftEyeX))
	assert.Equal(t, babble.Counters{Unknown: 1}, legacy.Counters(), "eye addresses are not delegated")

	r.UpdateData(osc.NewMessage("/jawOpen", float32(0.7)))
	w, _ := legacy.Weight("jawOpen")
	assert.Equal(t, float32(0.7), w)

	// Eye addresses stay vetoed even when the value is unusable.
	r.UpdateData(osc.NewMessage("/RightEyeLid", "closed"))
	assert.Equal(t, babble.Counters{Handled: 1, Unknown: 1}, legacy.Counters())

	r.UpdateData(osc.NewMessage(""))
	assert.Equal(t, babble.Counters{Handled: 1, Unknown: 2}, legacy.Counters(), "empty address is delegated")

	r.UpdateData(nil)
}

func TestRedirector_EndToEnd(t *testing.T) {
	c := &config.Config{Strategy: config.String("redirect"), LegacyEnabled: config.Bool(true)}
	c.ApplyPreset()
	cfg := config.NewStore(c)
	legacy := babble.NewDriver(cfg)
	r, err := NewRedirector(legacy, NewBridge(cfg))
	require.NoError(t, err)

	in := host.NewInput(true)
	loop := host.NewLoop(in, nil, 90, r)
	require.Equal(t, 1, loop.Init())

	dispatch := Dispatcher(r)
	for _, p := range (testutil.EyeSample{LeftLid: 0.3, RightLid: 0.3}).Packets(t) {
		packet, err := osc.ParsePacket(string(p))
		require.NoError(t, err)
		dispatch.Dispatch(packet)
	}
	dispatch.Dispatch(osc.NewMessage("/mouthSmileLeft", float32(0.9)))
	loop.Tick(1.0 / 90)

	target, ok := in.Eyes(eyes.DeviceName)
	require.True(t, ok)
	snap := target.Snapshot()
	assert.True(t, snap.TrackingActive)
	assert.Equal(t, input.Float3{X: 0, Y: 0, Z: 1}, snap.Frame.Left.Direction)
	assert.Equal(t, float32(0.3), snap.Frame.Left.Openness, "redirect preset passes the lid through")

	mouth, ok := in.Mouth(babble.DeviceName)
	require.True(t, ok)
	assert.Equal(t, float32(0.9), mouth.Snapshot().Shapes["mouthSmileLeft"])
}

func TestDispatcher_WalksBundles(t *testing.T) {
	inner := &fakeDriver{}
	d := Dispatcher(inner)

	data := testutil.EncodeBundle(t, osc.NewMessage("/a"), osc.NewMessage("/b"))
	packet, err := osc.ParsePacket(string(data))
	require.NoError(t, err)
	d.Dispatch(packet)
	d.Dispatch(osc.NewMessage("/c"))

	assert.Equal(t, []string{"/a", "/b", "/c"}, inner.messages)
}

func portInUse() error {
	return &net.OpError{Op: "listen", Net: "udp", Err: os.NewSyscallError("bind", syscall.EADDRINUSE)}
}

func TestStandalone_BindFailure(t *testing.T) {
	bridge := newBridge(t, nil)
	s := NewStandalone(bridge, oscnet.ListenerConfig{
		Port:    8888,
		Sockets: &oscnet.MockUDPSocketFactory{Error: portInUse()},
	})
	require.True(t, s.ShouldInitialize())

	in := host.NewInput(true)
	err := s.RegisterInputs(in)
	assert.ErrorIs(t, err, oscnet.ErrPortInUse)
	assert.False(t, s.Registered())
	assert.False(t, bridge.Registered())

	_, ok := in.Eyes(eyes.DeviceName)
	assert.False(t, ok, "no device is created when the port is taken")

	assert.NoError(t, s.UpdateInputs(0.011))
	assert.ErrorIs(t, s.Serve(context.Background()), ErrNotRegistered)
	assert.Nil(t, s.LocalAddr())
}

func TestStandalone_ReplaySkipsBind(t *testing.T) {
	factory := &oscnet.MockUDPSocketFactory{Error: portInUse()}
	bridge := newBridge(t, nil)
	s := NewStandalone(bridge, oscnet.ListenerConfig{Port: 8888, Sockets: factory})
	s.SetReplay(true)

	in := host.NewInput(true)
	require.NoError(t, s.RegisterInputs(in), "a taken live port does not matter when replaying")
	assert.Empty(t, factory.ListenCalls)
	assert.True(t, s.Registered())

	for _, p := range (testutil.EyeSample{LeftLid: 0.2, RightLid: 0.2}).Packets(t) {
		require.NoError(t, s.Listener().HandlePacket(p))
	}
	require.NoError(t, s.UpdateInputs(0.011))

	target, ok := in.Eyes(eyes.DeviceName)
	require.True(t, ok)
	snap := target.Snapshot()
	assert.Equal(t, int64(1), snap.Commits)
	assert.InDelta(t, 0.8, snap.Frame.Left.Openness, 1e-6)
}

func TestStandalone_ShouldInitializeFollowsEnabled(t *testing.T) {
	s := NewStandalone(newBridge(t, &config.Config{Enabled: config.Bool(false)}), oscnet.ListenerConfig{})
	assert.False(t, s.ShouldInitialize())
}

func TestStandalone_ServeAndTick(t *testing.T) {
	sample := testutil.EyeSample{LeftX: 0, LeftY: 0, RightX: 0, RightY: 0, LeftLid: 0.3, RightLid: 0.1}
	packets := append(sample.Packets(t), testutil.EncodeMessage(t, "/Foo", float32(9)))
	sock := oscnet.NewMockUDPSocket(packets...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sock.OnDrained = cancel

	bridge := newBridge(t, nil)
	s := NewStandalone(bridge, oscnet.ListenerConfig{Sockets: &oscnet.MockUDPSocketFactory{Socket: sock}})
	in := host.NewInput(true)
	require.NoError(t, s.RegisterInputs(in))
	assert.Equal(t, sock.LocalAddress, s.LocalAddr())

	assert.ErrorIs(t, s.Serve(ctx), context.Canceled)
	assert.Equal(t, int64(len(packets)), s.Listener().Stats().Totals().Packets)

	want := eyes.Samples{}
	want[eyes.LeftEyeLid] = 0.3
	want[eyes.RightEyeLid] = 0.1
	assert.Equal(t, want, bridge.Store().Snapshot(), "/Foo is ignored")

	require.NoError(t, s.UpdateInputs(0.011))
	target, _ := in.Eyes(eyes.DeviceName)
	snap := target.Snapshot()
	assert.InDelta(t, 0.7, snap.Frame.Left.Openness, 1e-6)
	assert.InDelta(t, 0.9, snap.Frame.Right.Openness, 1e-6)
	assert.InDelta(t, 0.8, snap.Frame.Combined.Openness, 1e-6)
}

func TestStandalone_InactiveOutsideVR(t *testing.T) {
	s := NewStandalone(newBridge(t, nil), oscnet.ListenerConfig{
		Sockets: &oscnet.MockUDPSocketFactory{Socket: oscnet.NewMockUDPSocket()},
	})
	in := host.NewInput(false)
	require.NoError(t, s.RegisterInputs(in))
	require.NoError(t, s.UpdateInputs(0.011))

	target, _ := in.Eyes(eyes.DeviceName)
	assert.False(t, target.TrackingActive())
	assert.Zero(t, target.Snapshot().Commits)
}

func localHostRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func TestAttachAdminRoutes(t *testing.T) {
	bridge := newBridge(t, nil)
	bridge.Handle(osc.NewMessage("/LeftEyeX", float32(0.25)))
	mux := http.NewServeMux()
	bridge.AttachAdminRoutes(mux)

	t.Run("status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, localHostRequest(http.MethodGet, "/debug/gaze", ""))
		require.Equal(t, http.StatusOK, rec.Code)

		var st Status
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		assert.Equal(t, bridge.ID(), st.Session)
		assert.True(t, st.Enabled)
		assert.False(t, st.Registered)
		assert.Equal(t, float32(0.25), st.Samples["LeftEyeX"])
	})

	t.Run("get config", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, localHostRequest(http.MethodGet, "/debug/gaze/config", ""))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"enabled":true`)
	})

	t.Run("patch config", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, localHostRequest(http.MethodPost, "/debug/gaze/config", `{"alpha": 0.5}`))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float32(0.5), bridge.Config().Current().GetAlpha())
	})

	t.Run("invalid patch", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, localHostRequest(http.MethodPost, "/debug/gaze/config", `{"openness_mode": "sideways"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, config.OpennessInverted, bridge.Config().Current().GetOpennessMode())
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, localHostRequest(http.MethodPost, "/debug/gaze/config", `{`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, localHostRequest(http.MethodDelete, "/debug/gaze/config", ""))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
