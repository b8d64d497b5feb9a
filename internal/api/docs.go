package api

// docsHTML renders the OpenAPI reference with a header linking the other
// surfaces the daemon serves.
const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>taborderd API</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
  <style>
    body { margin: 0; height: 100vh; display: flex; flex-direction: column; background: #0d1117; }
    nav { display: flex; gap: 18px; align-items: center; padding: 8px 16px; border-bottom: 1px solid #30363d;
          font: 500 12px -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; }
    nav strong { color: #c9d1d9; margin-right: auto; }
    nav a { color: #58a6ff; text-decoration: none; }
    elements-api { flex: 1; min-height: 0; }
  </style>
</head>
<body>
  <nav>
    <strong>taborderd</strong>
    <a href="/docs/bridge">Bridge protocol</a>
    <a href="/api/v1/events">Decision feed</a>
    <a href="/openapi.json">openapi.json</a>
  </nav>
  <elements-api apiDescriptionUrl="/openapi.json" router="hash" layout="sidebar" darkMode />
</body>
</html>`
