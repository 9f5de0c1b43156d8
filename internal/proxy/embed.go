package proxy

import (
	"html/template"
	"log/slog"
	"net/http"
)

// embedPage is the player page served at /embed. Playback goes through
// /proxy so the browser never talks to the origin directly. The page posts
// saturn-* messages to the parent window for auto-next and watch progress,
// and seeks on resume-video messages.
var embedPage = template.Must(template.New("embed").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Embed Player</title>
    <style>
        body {
            margin: 0;
            background: #000;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
        }
        video {
            width: 100%;
            height: 100%;
            background: black;
        }
        #quality {
            position: absolute;
            top: 10px;
            right: 10px;
            z-index: 10;
            background: rgba(0, 0, 0, 0.7);
            color: #fff;
            border: 1px solid #444;
            padding: 4px;
            display: none;
        }
    </style>
</head>
<body>
    <select id="quality"></select>
    <video id="video" controls autoplay playsinline></video>

    <script src="https://cdn.jsdelivr.net/npm/hls.js@latest"></script>
    <script>
        const video = document.getElementById('video');
        const quality = document.getElementById('quality');
        const source = "/proxy?url={{.}}";

        if (source.endsWith(".m3u8")) {
            if (Hls.isSupported()) {
                const hls = new Hls();
                hls.loadSource(source);
                hls.attachMedia(video);
                hls.on(Hls.Events.MANIFEST_PARSED, (event, data) => {
                    if (data.levels.length > 1) {
                        quality.style.display = 'block';
                        const auto = document.createElement('option');
                        auto.value = -1;
                        auto.textContent = 'Auto';
                        quality.appendChild(auto);
                        data.levels.forEach((level, i) => {
                            const opt = document.createElement('option');
                            opt.value = i;
                            opt.textContent = level.height
                                ? level.height + 'p'
                                : Math.round(level.bitrate / 1000) + ' kbps';
                            quality.appendChild(opt);
                        });
                        quality.addEventListener('change', () => {
                            hls.currentLevel = parseInt(quality.value, 10);
                        });
                    }
                    video.play();
                });
            } else if (video.canPlayType('application/vnd.apple.mpegurl')) {
                video.src = source;
                video.addEventListener('loadedmetadata', () => video.play());
            } else {
                document.body.innerHTML = "<h3 style='color:white'>Browser cannot play HLS streams.</h3>";
            }
        } else {
            video.src = source;
            video.play();
        }

        // Auto-next + progress tracking
        video.addEventListener('ended', () => {
            window.parent.postMessage({ type: 'saturn-video-ended' }, '*');
        });

        let lastSent = 0;
        video.addEventListener('timeupdate', () => {
            const t = Math.floor(video.currentTime);
            if (t % 5 === 0 && t !== lastSent) {
                lastSent = t;
                window.parent.postMessage(
                    {
                        type: 'saturn-progress',
                        currentTime: video.currentTime,
                        duration: video.duration
                    },
                    '*'
                );
            }
        });

        // Resume support
        window.addEventListener('message', (e) => {
            if (e.data?.type === 'resume-video' && e.data?.time) {
                video.currentTime = e.data.time;
            }
        });
    </script>
</body>
</html>
`))

// Embed handles GET /embed?url=<video URL>.
func (h *Handler) Embed(w http.ResponseWriter, r *http.Request) {
	videoURL := r.URL.Query().Get("url")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if videoURL == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("<h3>Error: Missing ?url= parameter</h3>"))
		return
	}

	if err := embedPage.Execute(w, videoURL); err != nil {
		h.log.Error("render embed page", slog.String("error", err.Error()))
	}
}
