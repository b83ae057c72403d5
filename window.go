package wake

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowState owns the glfw window and its WebGPU surface.
type WindowState struct {
	window *glfw.Window
	Width  int
	Height int
	Title  string

	surface *wgpu.Surface
	adapter *wgpu.Adapter
	device  *wgpu.Device
	queue   *wgpu.Queue
	config  *wgpu.SurfaceConfiguration

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	ClearColor wgpu.Color

	// panel key bindings: Tab selects a slider, Up/Down nudge it
	panel       *MemoryPanel
	panelCursor int
}

const depthFormat = wgpu.TextureFormatDepth24Plus

// WindowModule opens a window, creates the device and draws the RenderList
// every frame. Closing the window quits the app.
type WindowModule struct {
	Width  int
	Height int
	Title  string
}

func (m WindowModule) Install(app *App, cmd *Commands) {
	if m.Width <= 0 {
		m.Width = 1280
	}
	if m.Height <= 0 {
		m.Height = 720
	}
	if m.Title == "" {
		m.Title = "wake"
	}

	ws, err := createWindowState(m.Width, m.Height, m.Title)
	if err != nil {
		panic(fmt.Sprintf("window: %v", err))
	}
	cmd.AddResources(ws, &GpuContext{
		Device:      ws.device,
		Queue:       ws.queue,
		ColorFormat: ws.config.Format,
		DepthFormat: depthFormat,
	})
	if _, ok := Resource[RenderList](app); !ok {
		cmd.AddResources(&RenderList{})
	}
	if _, ok := Resource[Camera](app); !ok {
		cam := NewCamera(m.Width, m.Height)
		cam.PixelRatio, _ = ws.window.GetContentScale()
		cmd.AddResources(cam)
	}
	if p, ok := Resource[MemoryPanel](app); ok {
		ws.bindPanel(p, app.Logger())
	}

	cmd.UseSystem(System(windowEventsSystem).InStage(PreUpdate))
	cmd.UseSystem(System(windowRenderSystem).InStage(Render))
	cmd.UseSystem(System(windowCloseSystem).InStage(Finale))
}

func createWindowState(width, height int, title string) (*WindowState, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, err
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "Wake Device"})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}

	fbw, fbh := win.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(fbw),
		Height:      uint32(fbh),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, config)

	ws := &WindowState{
		window:     win,
		Width:      fbw,
		Height:     fbh,
		Title:      title,
		surface:    surface,
		adapter:    adapter,
		device:     device,
		queue:      device.GetQueue(),
		config:     config,
		ClearColor: wgpu.Color{R: 0.004, G: 0.02, B: 0.05, A: 1},
	}
	if err := ws.createDepth(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (ws *WindowState) createDepth() error {
	if ws.depthView != nil {
		ws.depthView.Release()
		ws.depthView = nil
	}
	if ws.depthTexture != nil {
		ws.depthTexture.Release()
		ws.depthTexture = nil
	}
	tex, err := ws.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "WakeDepth",
		Size:          wgpu.Extent3D{Width: ws.config.Width, Height: ws.config.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create depth view: %w", err)
	}
	ws.depthTexture, ws.depthView = tex, view
	return nil
}

func (ws *WindowState) resize(width, height int) error {
	if width == 0 || height == 0 || (width == ws.Width && height == ws.Height) {
		return nil
	}
	ws.Width, ws.Height = width, height
	ws.config.Width, ws.config.Height = uint32(width), uint32(height)
	ws.surface.Configure(ws.adapter, ws.device, ws.config)
	return ws.createDepth()
}

func (ws *WindowState) bindPanel(p *MemoryPanel, log Logger) {
	ws.panel = p
	ws.window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press && action != glfw.Repeat {
			return
		}
		labels := p.Labels()
		if len(labels) == 0 {
			return
		}
		var (
			v   float32
			err error
		)
		label := labels[ws.panelCursor%len(labels)]
		switch key {
		case glfw.KeyTab:
			ws.panelCursor = (ws.panelCursor + 1) % len(labels)
			label = labels[ws.panelCursor]
			s, _ := p.Slider(label)
			log.Infof("selected %s = %.3f", label, s.Get())
			return
		case glfw.KeyUp:
			v, err = p.Nudge(label, 1)
		case glfw.KeyDown:
			v, err = p.Nudge(label, -1)
		default:
			return
		}
		if err != nil {
			log.Warnf("panel: %v", err)
			return
		}
		log.Infof("%s = %.3f", label, v)
	})
}

func windowEventsSystem(cmd *Commands, ws *WindowState, cam *Camera) {
	glfw.PollEvents()
	if ws.window.ShouldClose() {
		cmd.Quit()
		return
	}
	w, h := ws.window.GetFramebufferSize()
	if err := ws.resize(w, h); err != nil {
		cmd.Logger().Errorf("resize: %v", err)
	}
	cam.Width, cam.Height = ws.Width, ws.Height
}

func windowRenderSystem(cmd *Commands, ws *WindowState, list *RenderList, cam *Camera, t *Time) {
	if ws.Width == 0 || ws.Height == 0 {
		return
	}
	log := cmd.Logger()

	list.Each(func(d Drawable) { d.Prepare(ws.queue, cam, t) })

	next, err := ws.surface.GetCurrentTexture()
	if err != nil {
		log.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer next.Release()
	view, err := next.CreateView(nil)
	if err != nil {
		log.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := ws.device.CreateCommandEncoder(nil)
	if err != nil {
		log.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: ws.ClearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            ws.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	list.Each(func(d Drawable) { d.Encode(pass) })
	if err := pass.End(); err != nil {
		log.Errorf("render pass End failed: %v", err)
	}

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		log.Errorf("encoder Finish failed: %v", err)
		return
	}
	ws.queue.Submit(cmdBuf)
	ws.surface.Present()
}

// windowCloseSystem tears the window down once the app is quitting. Effects
// release their GPU objects in PostRender, before this runs.
func windowCloseSystem(cmd *Commands, ws *WindowState) {
	if !cmd.app.Quitting() || ws.window == nil {
		return
	}
	if ws.depthView != nil {
		ws.depthView.Release()
	}
	if ws.depthTexture != nil {
		ws.depthTexture.Release()
	}
	ws.queue.Release()
	ws.device.Release()
	ws.adapter.Release()
	ws.surface.Release()
	ws.window.Destroy()
	ws.window = nil
	glfw.Terminate()
}
