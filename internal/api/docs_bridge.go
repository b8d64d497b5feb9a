package api

const bridgeDocsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Bridge Protocol | taborderd</title>
  <style>
    body {
      margin: 0 auto;
      max-width: 880px;
      padding: 24px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      font-size: 14px;
      line-height: 1.6;
      background: #0d1117;
      color: #c9d1d9;
    }
    a { color: #58a6ff; }
    h1, h2 { color: #e6edf3; }
    code, pre {
      font-family: "SFMono-Regular", Consolas, monospace;
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
    }
    code { padding: 1px 5px; }
    pre { padding: 12px; overflow-x: auto; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #30363d; padding: 6px 10px; text-align: left; }
  </style>
</head>
<body>
  <p><a href="/docs">&larr; REST API</a></p>
  <h1>Bridge protocol</h1>
  <p>
    The browser extension shim connects to <code>ws://HOST/bridge</code> and exchanges
    JSON text frames. Only one shim is served at a time; a new connection replaces the
    old one and fails its in-flight requests.
  </p>

  <h2>Requests from the daemon</h2>
<pre>{"id": 12, "method": "tabs.query", "params": {"windowId": 3}}</pre>
  <p>The shim answers with the same <code>id</code>:</p>
<pre>{"id": 12, "result": [{"id": 40, "windowId": 3, "index": 0, "pinned": false, "active": true}]}
{"id": 12, "error": {"code": "NOT_FOUND", "message": "No window with id: 3."}}</pre>
  <table>
    <tr><th>Method</th><th>Params</th><th>Result</th></tr>
    <tr><td><code>tabs.query</code></td><td><code>windowId</code>, <code>active?</code></td><td>tab list</td></tr>
    <tr><td><code>tabs.get</code></td><td><code>tabId</code></td><td>tab</td></tr>
    <tr><td><code>windows.get</code></td><td><code>windowId</code></td><td>window</td></tr>
    <tr><td><code>windows.getAll</code></td><td><code>windowTypes</code></td><td>window list</td></tr>
    <tr><td><code>windows.getLastFocused</code></td><td><code>windowTypes</code></td><td>window</td></tr>
    <tr><td><code>tabs.move</code></td><td><code>tabId</code>, <code>windowId?</code>, <code>index</code></td><td>none</td></tr>
    <tr><td><code>tabs.update</code></td><td><code>tabId</code>, <code>active</code></td><td>none</td></tr>
    <tr><td><code>runtime.openOptionsPage</code></td><td>none</td><td>none</td></tr>
  </table>
  <p>
    Error codes: <code>TAB_DRAG_IN_PROGRESS</code> (retried), <code>NOT_FOUND</code>,
    <code>HOST_FAILURE</code>. Without a code the daemon classifies the host's message.
  </p>

  <h2>Events from the shim</h2>
<pre>{"event": "tabs.onCreated", "params": {"tab": {"id": 41, "windowId": 3, "index": 1}}}</pre>
  <table>
    <tr><th>Event</th><th>Params</th></tr>
    <tr><td><code>session.hello</code></td><td><code>sessionId</code></td></tr>
    <tr><td><code>runtime.onInstalled</code></td><td><code>reason</code></td></tr>
    <tr><td><code>windows.onCreated</code></td><td><code>window</code></td></tr>
    <tr><td><code>windows.onRemoved</code></td><td><code>windowId</code>, <code>windowType</code></td></tr>
    <tr><td><code>tabs.onCreated</code></td><td><code>tab</code></td></tr>
    <tr><td><code>tabs.onRemoved</code></td><td><code>tabId</code>, <code>windowId</code>, <code>isWindowClosing</code></td></tr>
    <tr><td><code>tabs.onDetached</code></td><td><code>tabId</code>, <code>oldWindowId</code>, <code>oldPosition</code></td></tr>
    <tr><td><code>tabs.onAttached</code></td><td><code>tabId</code>, <code>newWindowId</code>, <code>newPosition</code></td></tr>
    <tr><td><code>tabs.onMoved</code></td><td><code>tabId</code>, <code>windowId</code>, <code>fromIndex</code>, <code>toIndex</code></td></tr>
    <tr><td><code>tabs.onUpdated</code></td><td><code>tabId</code>, <code>changeInfo</code>, <code>tab</code></td></tr>
    <tr><td><code>tabs.onActivated</code></td><td><code>tabId</code>, <code>windowId</code></td></tr>
  </table>

  <h2>Decision feed</h2>
  <p>
    <code>GET /api/v1/events</code> streams server-sent events named <code>place</code>,
    <code>activate</code> and <code>redirect</code>. Filter with <code>?kinds=place,redirect</code>.
  </p>
</body>
</html>`
