package server

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>chunksplit: {{.RepoAddress}}</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }

    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      min-height: 100vh;
      padding: 1rem;
      background-color: #f8f9fa;
      color: #212529;
    }

    @media (prefers-color-scheme: dark) {
      body { background-color: #1a1a2e; color: #e0e0e0; }
      .controls button { background-color: #2d2d44; color: #e0e0e0; border-color: #444; }
      table.chunks th { background-color: #2d2d44; }
    }

    h1 { margin: 1rem 0; font-size: 1.4rem; font-weight: 600; text-align: center; }
    h2 { font-size: 1.1rem; margin-bottom: 0.5rem; }
    .summary { text-align: center; margin-bottom: 1rem; color: #6c757d; }

    .controls { display: flex; gap: 0.5rem; margin-bottom: 1rem; justify-content: center; flex-wrap: wrap; }
    .controls button {
      padding: 0.4rem 0.9rem;
      font-size: 0.9rem;
      border: 1px solid #ccc;
      border-radius: 6px;
      background-color: #ffffff;
      cursor: pointer;
    }
    .controls button.active { font-weight: 600; border-color: #2374ab; }

    .panes { display: grid; grid-template-columns: 1fr 1fr; gap: 1rem; }
    .pane { overflow: auto; border: 1px solid #ccc; border-radius: 6px; padding: 0.75rem; }
    .slide { display: none; }
    .slide.active { display: block; }
    .slide-title { font-size: 0.9rem; color: #6c757d; margin-bottom: 0.5rem; }

    table.chunks { margin-top: 1.5rem; width: 100%; border-collapse: collapse; font-size: 0.85rem; }
    table.chunks th, table.chunks td { border: 1px solid #ccc; padding: 0.3rem 0.5rem; text-align: left; vertical-align: top; }
    table.chunks th { background-color: #e9ecef; }
    .kind-split { color: #b87a1f; font-weight: 600; }
    .kind-entry { color: #2374ab; font-weight: 600; }
    .kind-async { font-style: italic; }
  </style>
</head>
<body>
  <h1>chunksplit: {{.RepoAddress}}</h1>
  <p class="summary">{{.Created}} parts created, {{len .Chunks}} chunks after splitting</p>

  <div class="controls">
    <button id="prev" title="Previous slide">&larr; Prev</button>
    <span id="slide-label"></span>
    <button id="next" title="Next slide">Next &rarr;</button>
    <button id="copy-after" title="Copy Mermaid source of the current after slide">Copy Mermaid Source</button>
  </div>

  <div class="panes">
    <section class="pane" id="before">
      <h2>Before</h2>
      {{range $i, $s := .Before}}
      <div class="slide{{if eq $i 0}} active{{end}}" data-index="{{$i}}">
        <div class="slide-title">{{$s.Title}}</div>
        <pre class="mermaid">{{$s.Mermaid}}</pre>
      </div>
      {{end}}
    </section>
    <section class="pane" id="after">
      <h2>After</h2>
      {{range $i, $s := .After}}
      <div class="slide{{if eq $i 0}} active{{end}}" data-index="{{$i}}">
        <div class="slide-title">{{$s.Title}}</div>
        <pre class="mermaid">{{$s.Mermaid}}</pre>
      </div>
      {{end}}
    </section>
  </div>

  <table class="chunks">
    <thead>
      <tr><th>Chunk</th><th>Kind</th><th>Modules</th><th>Parents</th></tr>
    </thead>
    <tbody>
      {{range .Chunks}}
      <tr id="{{.ID}}">
        <td>{{.Name}}</td>
        <td class="kind-{{.Kind}}">{{.Kind}}</td>
        <td>{{len .Modules}}</td>
        <td>{{range $i, $p := .Parents}}{{if $i}}, {{end}}{{$p}}{{end}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>

  <script src="https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"></script>
  <script>
    mermaid.initialize({
      startOnLoad: true,
      theme: 'base',
      flowchart: { htmlLabels: true },
      themeVariables: {
        primaryColor: '#ffffff',
        primaryBorderColor: '#cccccc',
        primaryTextColor: '#000000',
        lineColor: '#555555',
        fontSize: '14px'
      }
    });

    (function() {
      var current = 0;
      var panes = ['before', 'after'].map(function(id) {
        return document.getElementById(id).querySelectorAll('.slide');
      });
      var count = Math.max(panes[0].length, panes[1].length);
      var label = document.getElementById('slide-label');

      function show(idx) {
        current = (idx + count) % count;
        panes.forEach(function(slides) {
          slides.forEach(function(s) {
            s.classList.toggle('active', Number(s.dataset.index) === Math.min(current, slides.length - 1));
          });
        });
        label.textContent = (current + 1) + ' / ' + count;
      }

      document.getElementById('prev').addEventListener('click', function() { show(current - 1); });
      document.getElementById('next').addEventListener('click', function() { show(current + 1); });
      document.getElementById('copy-after').addEventListener('click', function() {
        fetch('/after.mmd?slide=' + current).then(function(r) { return r.text(); }).then(function(src) {
          navigator.clipboard.writeText(src);
        });
      });
      show(0);
    })();
  </script>
</body>
</html>
`
