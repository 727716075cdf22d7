package decoy

// Fake WordPress pages. The markup mimics a stock install closely enough to
// satisfy scanners that fingerprint login-page structure.

const SiteTitle = "WordPress Site"

const HomePage = `<!DOCTYPE html>
<html>
<head>
    <title>` + SiteTitle + `</title>
    <link rel="stylesheet" href="/wp-content/themes/twentyTwenty/style.css">
</head>
<body>
    <div class="wp-site-blocks">
        <main>
            <article>
                <h2>Hello world!</h2>
                <p>Welcome to WordPress. This is your first post</p>
                <p><a href="/wp-login.php">Log in</a></p>
            </article>
        </main>
        <footer>Powered by WordPress 6.4.3</footer>
    </div>
</body>
</html>
`

const LoginPage = `<!DOCTYPE html>
<html lang="en-US">
<head>
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
    <title>Log In &lsaquo; WordPress &mdash; WordPress</title>
    <meta name='robots' content='max-image-preview:large, noindex, noarchive'>
    <link rel='stylesheet' id='dashicons-css' href='https://wordpress.org/wp-includes/css/dashicons.min.css' type='text/css' media='all'>
    <link rel='stylesheet' id='buttons-css' href='https://wordpress.org/wp-includes/css/buttons.min.css' type='text/css' media='all'>
    <link rel='stylesheet' id='forms-css' href='https://wordpress.org/wp-admin/css/forms.min.css' type='text/css' media='all'>
    <link rel='stylesheet' id='login-css' href='https://wordpress.org/wp-admin/css/login.min.css' type='text/css' media='all'>
    <meta name='referrer' content='strict-origin-when-cross-origin'>
    <meta name="viewport" content="width=device-width">
    <style>
        .login h1 a {
            background-image: url('/logo.png');
            background-size: contain;
            background-repeat: no-repeat;
            background-position: center;
            width: 84px;
            height: 84px;
        }
    </style>
</head>
<body class="login no-js login-action-login wp-core-ui locale-en-us">
<div id="login">
    <h1><a href="https://wordpress.org/">Powered by WordPress</a></h1>

    <form name="loginform" id="loginform" action="/wp-login.php" method="post">
        <p>
            <label for="user_login">Username or Email Address</label>
            <input type="text" name="username" id="user_login" class="input" value="" size="20" autocapitalize="off" autocomplete="username" required>
        </p>

        <div class="user-pass-wrap">
            <label for="user_pass">Password</label>
            <div class="wp-pwd">
                <input type="password" name="password" id="user_pass" class="input password-input" value="" size="20" autocomplete="current-password" required>
            </div>
        </div>

        <p class="forgetmenot">
            <input name="rememberme" type="checkbox" id="rememberme" value="forever">
            <label for="rememberme">Remember Me</label>
        </p>

        <p class="submit">
            <input type="submit" name="wp-submit" id="wp-submit" class="button button-primary button-large" value="Log In">
            <input type="hidden" name="redirect_to" value="/wp-admin/">
            <input type="hidden" name="testcookie" value="1">
        </p>
    </form>

    <p id="nav">
        <a href="/wp-login.php?action=lostpassword">Lost your password?</a>
    </p>

    <p id="backtoblog">
        <a href="/">&larr; Go to Site</a>
    </p>
</div>
<div class="clear"></div>
</body>
</html>
`

const LoginErrorPage = `<div style="margin: 40px; padding: 20px; border: 1px solid #f00; background: #fee;">
    <h3>Login Error</h3>
    <p>The username or password you entered is incorrect.</p>
    <p><a href="/wp-login.php">Try again</a></p>
</div>
`

const AdminPage = `<!DOCTYPE html>
<html>
<head>
    <title>WordPress Admin &bull; ` + SiteTitle + `</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; background: #f1f1f1; }
        .wp-admin-bar { background: #23282d; color: white; padding: 15px; }
        .admin-content { padding: 20px; }
        .notice { background: #fff; border-left: 4px solid #00a0d2; padding: 10px; margin: 10px 0; }
    </style>
</head>
<body>
    <div class="wp-admin-bar">
        <strong>WordPress Admin</strong> &bull; ` + SiteTitle + `
    </div>
    <div class="admin-content">
        <h2>Dashboard</h2>
        <div class="notice">
            <p>Please log in to access the WordPress admin area.</p>
            <p><a href="/wp-login.php">Log in here</a></p>
        </div>
    </div>
</body>
</html>
`
