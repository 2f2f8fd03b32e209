package web

// Single-page dashboard: engine status, open positions, action history and
// a small settings form.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>AMPL Rebalancer</title>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Press+Start+2P&family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
      --safe:#1b9aaa;
      --caution:#ff7f11;
      --risk:#d7263d;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      display:flex;
      align-items:center;
      justify-content:center;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    body::before {
      content:'';
      position:fixed;
      inset:0;
      background:
        linear-gradient(90deg, rgba(0,0,0,.02) 1px, transparent 1px),
        linear-gradient(rgba(0,0,0,.02) 1px, transparent 1px);
      background-size:12px 12px;
      pointer-events:none;
    }
    #app {
      width:min(1300px, 96vw);
      background:var(--panel);
      border:3px solid var(--ink);
      padding:2rem;
      position:relative;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
      display:grid;
      grid-template-columns:1fr 360px;
      gap:2rem;
    }
    #app::after {
      content:'';
      position:absolute;
      inset:8px;
      border:1px dashed rgba(0,0,0,.15);
      pointer-events:none;
    }
    .main-content { display:flex; flex-direction:column; gap:1.5rem; }
    header { display:flex; justify-content:space-between; align-items:flex-start; gap:1rem; }
    .eyebrow {
      font-family:'Press Start 2P','Space Mono',monospace;
      font-size:.55rem;
      text-transform:uppercase;
      letter-spacing:.2em;
      margin:0;
    }
    .status {
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.1em;
      border:2px solid var(--ink);
      padding:.4rem .9rem;
      background:#ffffff;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .pills { display:flex; flex-wrap:wrap; gap:.5rem; }
    .pill {
      font-size:.55rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      padding:.35rem .7rem;
      border:2px solid var(--ink);
      background:#fefefe;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .pill.safe { border-color:var(--safe); color:var(--safe); }
    .pill.caution { border-color:var(--caution); color:var(--caution); }
    .pill.risk { border-color:var(--risk); color:var(--risk); }
    .pill.muted { color:var(--ink-mid); border-color:var(--ink-mid); }
    .card {
      border:3px solid var(--ink);
      padding:1.2rem;
      background:#fff;
      box-shadow:8px 8px 0 rgba(0,0,0,.15);
    }
    .card h2 {
      font-family:'Press Start 2P','Space Mono',monospace;
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.12em;
      margin:0 0 1rem 0;
      padding-bottom:.7rem;
      border-bottom:2px solid var(--ink);
    }
    table { width:100%; border-collapse:collapse; font-size:.7rem; }
    th, td {
      text-align:right;
      padding:.45rem .5rem;
      border-bottom:1px dashed var(--ink-soft);
    }
    th:first-child, td:first-child { text-align:left; }
    th {
      font-size:.55rem;
      text-transform:uppercase;
      letter-spacing:.12em;
      color:var(--ink-mid);
    }
    td.gain { color:var(--safe); font-weight:700; }
    td.loss { color:var(--risk); font-weight:700; }
    .empty-state {
      border:2px dashed var(--ink-soft);
      padding:1.5rem;
      text-align:center;
      font-size:.7rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      color:var(--ink-mid);
    }
    .sidebar { display:flex; flex-direction:column; gap:1.5rem; }
    .actions-scroll { max-height:340px; overflow-y:auto; display:flex; flex-direction:column; gap:.6rem; }
    .action-card {
      border:2px solid var(--ink);
      padding:.7rem;
      background:#fff;
      box-shadow:4px 4px 0 rgba(0,0,0,.12);
      font-size:.65rem;
      line-height:1.4;
    }
    .action-time { font-size:.55rem; color:var(--ink-mid); display:block; margin-bottom:.3rem; }
    form label {
      display:block;
      font-size:.55rem;
      text-transform:uppercase;
      letter-spacing:.12em;
      color:var(--ink-mid);
      margin:.8rem 0 .3rem;
    }
    form input[type=text] {
      width:100%;
      padding:.45rem;
      border:2px solid var(--ink);
      font-family:inherit;
      font-size:.7rem;
      background:#fefefe;
    }
    form .toggle { display:flex; align-items:center; gap:.5rem; margin-top:.8rem; font-size:.65rem; }
    form button {
      margin-top:1rem;
      width:100%;
      padding:.6rem;
      border:2px solid var(--ink);
      background:var(--ink);
      color:#fff;
      font-family:inherit;
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.12em;
      cursor:pointer;
      box-shadow:4px 4px 0 rgba(0,0,0,.25);
    }
    form button:active { transform:translate(2px,2px); box-shadow:2px 2px 0 rgba(0,0,0,.25); }
    #settingsMsg { font-size:.6rem; margin-top:.6rem; color:var(--ink-mid); min-height:1em; }
    @media (max-width:900px) {
      body { padding:1rem; }
      #app { padding:1.2rem; grid-template-columns:1fr; }
    }
  </style>
</head>
<body>
  <div id="app">
    <div class="main-content">
      <header>
        <p class="eyebrow">ampl rebalancer</p>
        <div id="sse-status" class="status">Connecting…</div>
      </header>
      <div id="pills" class="pills"></div>
      <section class="card">
        <h2>Prices</h2>
        <table>
          <thead><tr><th>Symbol</th><th>Price</th></tr></thead>
          <tbody id="priceRows"></tbody>
        </table>
      </section>
      <section class="card">
        <h2>Open Positions</h2>
        <div id="positionsEmpty" class="empty-state">No open positions</div>
        <table id="positionsTable" style="display:none">
          <thead>
            <tr>
              <th>Symbol</th><th>Qty</th><th>Avg Cost</th><th>Value</th>
              <th>P/L %</th><th>Sell</th>
            </tr>
          </thead>
          <tbody id="positionRows"></tbody>
        </table>
      </section>
    </div>
    <aside class="sidebar">
      <section class="card">
        <h2>Settings</h2>
        <form id="settingsForm">
          <label for="triggerPrice">Trigger price</label>
          <input type="text" id="triggerPrice" placeholder="1.16" />
          <label for="profitThreshold">Profit threshold %</label>
          <input type="text" id="profitThreshold" placeholder="1.5" />
          <div class="toggle">
            <input type="checkbox" id="protectionActive" />
            <label for="protectionActive" style="margin:0">Rebase protection</label>
          </div>
          <button type="submit">Apply</button>
          <div id="settingsMsg"></div>
        </form>
      </section>
      <section class="card">
        <h2>Actions</h2>
        <div id="actions" class="actions-scroll">
          <div class="empty-state">No actions yet</div>
        </div>
      </section>
    </aside>
  </div>
<script>
const statusEl = document.getElementById('sse-status');
const pillsEl = document.getElementById('pills');
const priceRows = document.getElementById('priceRows');
const positionRows = document.getElementById('positionRows');
const positionsTable = document.getElementById('positionsTable');
const positionsEmpty = document.getElementById('positionsEmpty');
const actionsEl = document.getElementById('actions');
const MAX_ACTIONS = 100;
let actionsSeen = 0;

const fmt = (value, digits) => {
  const num = parseFloat(value);
  if(!Number.isFinite(num)){ return '—'; }
  return num.toFixed(digits === undefined ? 4 : digits);
};

const formatTime = (ts) => {
  if(!ts){ return ''; }
  const date = new Date(ts);
  if(Number.isNaN(date.getTime())){ return ''; }
  return date.toLocaleTimeString([], { hour12:false });
};

function pill(text, cls){
  const el = document.createElement('span');
  el.className = 'pill' + (cls ? ' ' + cls : '');
  el.textContent = text;
  return el;
}

function protectionClass(status){
  if(status >= 75){ return 'safe'; }
  if(status >= 50){ return 'caution'; }
  return 'risk';
}

function renderStatus(status){
  pillsEl.replaceChildren();
  pillsEl.append(
    pill(status.platform, 'muted'),
    pill('trigger ' + status.trigger_price),
    pill(status.in_cooldown ? 'cooldown' : 'armed', status.in_cooldown ? 'muted' : ''),
    pill('threshold ' + status.profit_threshold_percent + '%')
  );
  if(status.rebase){
    const prot = status.rebase.protection_status;
    pillsEl.append(pill('protection ' + prot + '%', protectionClass(prot)));
    pillsEl.append(pill('peg dev ' + fmt(status.rebase.deviation, 4), protectionClass(prot)));
    if(!status.rebase.protection_active){
      pillsEl.append(pill('protection off', 'muted'));
    }
  }
  if(status.trend){
    pillsEl.append(pill('trend ' + status.trend.direction + ' / rsi ' + fmt(status.trend.rsi14, 1), 'muted'));
  }

  priceRows.replaceChildren();
  (status.basket || []).forEach((symbol) => {
    const row = document.createElement('tr');
    const name = document.createElement('td');
    name.textContent = symbol + (symbol === status.primary ? ' *' : '');
    const price = document.createElement('td');
    price.textContent = status.prices && status.prices[symbol] ? status.prices[symbol] : '—';
    row.append(name, price);
    priceRows.appendChild(row);
  });

  const positions = status.positions || [];
  positionsEmpty.style.display = positions.length ? 'none' : '';
  positionsTable.style.display = positions.length ? '' : 'none';
  positionRows.replaceChildren();
  positions.forEach((pos) => {
    const row = document.createElement('tr');
    const cells = [
      pos.symbol,
      fmt(pos.quantity),
      fmt(pos.average_cost),
      fmt(pos.current_value, 2),
      fmt(pos.unrealized_profit_percent, 2) + '%',
      pos.sell_order_placed ? 'placed' : '—'
    ];
    cells.forEach((text, i) => {
      const td = document.createElement('td');
      td.textContent = text;
      if(i === 4){
        const pl = parseFloat(pos.unrealized_profit_percent);
        if(Number.isFinite(pl) && pl !== 0){ td.className = pl > 0 ? 'gain' : 'loss'; }
      }
      row.appendChild(td);
    });
    positionRows.appendChild(row);
  });
}

function appendAction(entry){
  if(actionsSeen === 0){
    actionsEl.replaceChildren();
  }
  actionsSeen += 1;
  const card = document.createElement('div');
  card.className = 'action-card';
  const time = document.createElement('span');
  time.className = 'action-time';
  time.textContent = formatTime(entry.time);
  card.append(time, document.createTextNode(entry.message));
  actionsEl.insertBefore(card, actionsEl.firstChild);
  while(actionsEl.children.length > MAX_ACTIONS){
    actionsEl.removeChild(actionsEl.lastChild);
  }
}

function connectStatusSSE(){
  const source = new EventSource('/status/stream');
  source.addEventListener('status', (event) => {
    try{
      statusEl.textContent = 'Live';
      renderStatus(JSON.parse(event.data));
    }catch(err){
      console.error('status parse', err);
    }
  });
  source.addEventListener('error', () => {
    statusEl.textContent = 'Reconnecting…';
    source.close();
    setTimeout(connectStatusSSE, 2000);
  });
}

function connectActionSSE(){
  const source = new EventSource('/actions/stream');
  source.addEventListener('action', (event) => {
    try{
      appendAction(JSON.parse(event.data));
    }catch(err){
      console.error('action parse', err);
    }
  });
  source.addEventListener('error', () => {
    source.close();
    setTimeout(connectActionSSE, 2000);
  });
}

document.getElementById('settingsForm').addEventListener('submit', async (event) => {
  event.preventDefault();
  const msg = document.getElementById('settingsMsg');
  const body = { protection_active: document.getElementById('protectionActive').checked };
  const trigger = document.getElementById('triggerPrice').value.trim();
  const threshold = document.getElementById('profitThreshold').value.trim();
  if(trigger){ body.trigger_price = trigger; }
  if(threshold){ body.profit_threshold_percent = threshold; }
  try{
    const res = await fetch('/settings', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(body)
    });
    if(!res.ok){
      msg.textContent = 'Error: ' + await res.text();
      return;
    }
    msg.textContent = 'Applied';
    renderStatus(await res.json());
  }catch(err){
    msg.textContent = 'Request failed';
  }
});

connectStatusSSE();
connectActionSSE();
</script>
</body>
</html>`
