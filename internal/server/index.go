package server

import (
	"net/http"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Incident Briefer</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            background: #1a1a1a;
            color: #fff;
        }
        .container {
            max-width: 1100px;
            margin: 0 auto;
        }
        h1 {
            color: #4CAF50;
        }
        textarea {
            width: 100%;
            height: 180px;
            background: #2a2a2a;
            color: #fff;
            border: 1px solid #444;
            border-radius: 8px;
            padding: 10px;
            font-family: monospace;
        }
        button {
            background: #4CAF50;
            color: #fff;
            border: none;
            border-radius: 6px;
            padding: 10px 24px;
            margin: 10px 0;
            cursor: pointer;
            font-size: 1em;
        }
        .brief {
            background: #2a2a2a;
            padding: 20px;
            margin: 10px 0;
            border-radius: 8px;
            border-left: 4px solid #4CAF50;
        }
        .brief-high { border-left-color: #d32f2f; }
        .brief-medium { border-left-color: #ff9800; }
        .brief-low { border-left-color: #4CAF50; }
        .label { color: #999; font-size: 0.9em; }
        .status { color: #4CAF50; font-size: 0.9em; }
        ul { margin: 5px 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Incident Briefer</h1>
        <div class="status" id="status">Live feed: connecting...</div>

        <h2>Paste Logs</h2>
        <textarea id="log-input" placeholder="Paste operational log text here..."></textarea><br>
        <button onclick="runBrief()">Generate Brief</button>

        <div id="result"></div>

        <h2>Live Briefs</h2>
        <div id="live"></div>
    </div>

    <script>
        const ws = new WebSocket('ws://' + window.location.host + '/ws');
        const statusEl = document.getElementById('status');
        const liveEl = document.getElementById('live');

        ws.onopen = () => { statusEl.textContent = 'Live feed: connected'; };
        ws.onclose = () => { statusEl.textContent = 'Live feed: disconnected'; };

        ws.onmessage = (event) => {
            const brief = JSON.parse(event.data);
            liveEl.insertBefore(renderBrief(brief.incident, brief.output), liveEl.firstChild);
            while (liveEl.children.length > 10) {
                liveEl.removeChild(liveEl.lastChild);
            }
        };

        function renderBrief(incident, output) {
            const div = document.createElement('div');
            div.className = 'brief brief-' + output.severity.toLowerCase();
            div.innerHTML = ` + "`" + `
                <strong>${output.severity}</strong> severity,
                ${output.confidence} confidence —
                ${incident.serviceGuess} / ${incident.regionGuess}<br>
                <div class="label">${output.summary}</div>
                <div>${output.rootCause}</div>
                <div class="label">${output.signalHighlights.join(' | ')}</div>
                <div class="label">Impact: ${output.businessImpact}</div>
                <ul>${output.actions.map(a => '<li>' + a + '</li>').join('')}</ul>
            ` + "`" + `;
            return div;
        }

        async function runBrief() {
            const text = document.getElementById('log-input').value;
            const resultEl = document.getElementById('result');
            resultEl.innerHTML = '';

            const ingestResp = await fetch('/api/ingest', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({text})
            });
            if (!ingestResp.ok) {
                resultEl.textContent = await ingestResp.text();
                return;
            }
            const {incident} = await ingestResp.json();

            const analyzeResp = await fetch('/api/analyze', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({
                    service: incident.serviceGuess,
                    region: incident.regionGuess,
                    signals: incident.derivedSignals,
                    logs: incident.sampleLines
                })
            });
            if (!analyzeResp.ok) {
                resultEl.textContent = await analyzeResp.text();
                return;
            }
            const {output} = await analyzeResp.json();
            resultEl.appendChild(renderBrief(incident, output));
        }
    </script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}
