package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ledbar/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>LED Bar</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>LED Bar<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>State</h2>
<table>
<tr><th>Program</th><td id="state">{{stateOrUnknown (printf "%s" .State)}}</td></tr>
<tr><th>Tick</th><td id="ticks">{{.Ticks}}</td></tr>
</table>

<h2>LEDs</h2>
<table id="leds">
{{range $i, $led := .LEDs}}<tr><th>LED {{$i}} (every {{$led.Interval}})</th><td class="{{if $.Lit $i}}on{{else}}off{{end}}">{{if $.Lit $i}}ON{{else}}OFF{{end}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}none{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Toggles</th><td id="toggles">{{.Counts.Toggles}}</td></tr>
<tr><th>Bars</th><td id="bars">{{.Counts.Bars}}</td></tr>
<tr><th>Activations</th><td id="activations">{{.Counts.Activations}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Profile</th><td>{{.Config.Profile}}</td></tr>
<tr><th>Boot</th><td>{{.BootID}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick period</th><td>{{.Config.TickPeriod}}</td></tr>
<tr><th>Bar</th><td>{{.Config.BarTicks}} ticks</td></tr>
<tr><th>On</th><td>{{.Config.OnTicks}} ticks</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceTicks}} ticks</td></tr>
<tr><th>Reset phase</th><td>{{.Config.ResetPhase}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function render(st) {
    document.getElementById("state").textContent = st.state;
    document.getElementById("ticks").textContent = st.ticks;
    document.getElementById("toggles").textContent = st.counts.toggles;
    document.getElementById("bars").textContent = st.counts.bars;
    document.getElementById("activations").textContent = st.counts.activations;
    var cells = document.querySelectorAll("#leds td");
    for (var i = 0; i < cells.length && i < st.leds.length; i++) {
      cells[i].textContent = st.leds[i].lit ? "ON" : "OFF";
      cells[i].className = st.leds[i].lit ? "on" : "off";
    }
  }

  function connect() {
    var ws = new WebSocket(scheme + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onmessage = function(ev) {
      try { render(JSON.parse(ev.data).status); } catch (e) {}
    };
    ws.onclose = function() {
      setDot("pending", "reconnecting");
      setTimeout(connect, 5000);
    };
    ws.onerror = function() { setDot("err", "error"); };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
