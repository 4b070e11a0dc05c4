package automation

// Page scripts. Each one is a single evaluation that returns plain data and,
// when it locates an element, tags it with a per-call marker attribute so a
// follow-up click or fill can address exactly that element.
//
// Every script starts with an atlas:<name> comment that identifies it in
// logs and to scripted test pages.

const scriptFindClickable = `/* atlas:find-clickable */ ({ texts, roles, attr, token }) => {
  document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));
  const wanted = texts.map(t => t.toLowerCase());
  for (const role of roles) {
    for (const el of document.querySelectorAll(role)) {
      if (el.offsetParent === null) continue;
      const text = (el.textContent || '').toLowerCase();
      if (wanted.some(w => text.includes(w))) {
        el.setAttribute(attr, token);
        return { found: true, tag: el.tagName.toLowerCase(), text: (el.textContent || '').trim(), href: el.href || '' };
      }
    }
  }
  return { found: false };
}`

const scriptClickSweep = `/* atlas:click-sweep */ ({ texts, roles }) => {
  const wanted = texts.map(t => t.toLowerCase());
  for (const el of document.querySelectorAll(roles.join(', '))) {
    const text = (el.textContent || '').toLowerCase();
    if (wanted.some(w => text.includes(w))) {
      el.click();
      return { clicked: true, text: (el.textContent || '').trim() };
    }
  }
  return { clicked: false };
}`

const scriptFindStyled = `/* atlas:find-styled */ ({ roles, anyOf, allOf, attr, token }) => {
  document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));
  for (const el of document.querySelectorAll(roles.join(', '))) {
    if (el.offsetParent === null) continue;
    const cls = (typeof el.className === 'string' ? el.className : '').toLowerCase();
    const hit = anyOf.some(c => cls.includes(c)) || allOf.some(group => group.every(c => cls.includes(c)));
    if (hit) {
      el.setAttribute(attr, token);
      return { found: true, text: (el.textContent || '').trim(), className: cls };
    }
  }
  return { found: false };
}`

const scriptInspectSelect = `/* atlas:inspect-select */ ({ names, ids, attr, token }) => {
  document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));
  for (const select of document.querySelectorAll('select')) {
    if (names.includes(select.name) || ids.includes(select.id)) {
      select.setAttribute(attr, token);
      return {
        found: true,
        name: select.name,
        id: select.id,
        value: select.value,
        options: Array.from(select.options).map(o => ({ value: o.value, text: (o.textContent || '').trim() }))
      };
    }
  }
  return { found: false };
}`

const scriptReadValue = `/* atlas:read-value */ ({ selector }) => {
  const el = document.querySelector(selector);
  return el ? { found: true, value: el.value } : { found: false };
}`

const scriptClearValue = `/* atlas:clear-value */ ({ selector }) => {
  const el = document.querySelector(selector);
  if (!el) return false;
  el.value = '';
  return true;
}`

const scriptFindTextField = `/* atlas:find-text-field */ ({ inputs, include, placeholderInclude, exclude, attr, token }) => {
  document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));
  for (const el of document.querySelectorAll(inputs)) {
    const name = (el.name || '').toLowerCase();
    const id = (el.id || '').toLowerCase();
    const placeholder = (el.placeholder || '').toLowerCase();
    const fields = [name, id, placeholder];
    const included = include.some(k => fields.some(f => f.includes(k))) ||
      placeholderInclude.some(k => placeholder.includes(k));
    const excluded = exclude.some(k => fields.some(f => f.includes(k)));
    if (included && !excluded) {
      el.setAttribute(attr, token);
      return { found: true, name: el.name || '', id: el.id || '', placeholder: el.placeholder || '' };
    }
  }
  return { found: false };
}`

const scriptFirstText = `/* atlas:first-text */ ({ selectors }) => {
  for (const selector of selectors) {
    const el = document.querySelector(selector);
    if (el && el.textContent && el.textContent.trim()) {
      return { found: true, selector, text: el.textContent.trim() };
    }
  }
  return { found: false };
}`

const scriptBodyContains = `/* atlas:body-contains */ ({ text }) => {
  const body = (document.body && document.body.textContent || '').toLowerCase();
  return body.includes(text.toLowerCase());
}`

const scriptCheckSuccess = `/* atlas:check-success */ ({ selectors, text }) => {
  let successText = '';
  for (const selector of selectors) {
    const el = document.querySelector(selector);
    if (el && el.textContent && el.textContent.trim()) {
      successText = el.textContent.trim();
      break;
    }
  }
  const body = (document.body && document.body.textContent || '').toLowerCase();
  return { successText, textFound: text !== '' && body.includes(text.toLowerCase()) };
}`

const scriptDescribePage = `/* atlas:describe-page */ () => {
  const describeInputs = root => Array.from(root.querySelectorAll('input, select, textarea')).map(i => ({
    tag: i.tagName.toLowerCase(), type: i.type || '', name: i.name || '', id: i.id || '', placeholder: i.placeholder || ''
  }));
  return {
    title: document.title,
    url: window.location.href,
    buttons: Array.from(document.querySelectorAll('button')).slice(0, 10).map(b => (b.textContent || '').trim()),
    links: Array.from(document.querySelectorAll('a')).slice(0, 10).map(a => ({ text: (a.textContent || '').trim(), href: a.href || '' })),
    forms: Array.from(document.querySelectorAll('form')).map(f => ({ action: f.action, method: f.method, inputs: describeInputs(f) }))
  };
}`
