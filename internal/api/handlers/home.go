// home.go — HTML-страница по корневому пути.
package handlers

import "net/http"

// homePage — статическая страница-заглушка API.
const homePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Luxe Global Awards — Media Module</title>
  <style>
    html, body {
      margin: 0;
      padding: 0;
      font-family: 'Open Sans', sans-serif;
    }
    #app {
      padding: 40px;
      position: absolute;
      top: 0;
      bottom: 0;
      left: 0;
      right: 0;
      display: flex;
      align-items: center;
      justify-content: center;
      flex-direction: column;
    }
    h1, h4 {
      margin-bottom: 0.5rem;
      margin-top: 0;
    }
  </style>
</head>
<body>
  <div id="app">
    <h1>Luxe Global Awards</h1>
    <h4>Media Module API — Version 1</h4>
  </div>
</body>
</html>`

// Home — GET /. Отдаёт HTML-заглушку; аутентификация не требуется.
func (h *APIHandler) Home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(homePage))
}
